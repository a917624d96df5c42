package documents

import (
	"context"
	"fmt"

	"rfidstock/internal/core/apperror"
	"rfidstock/internal/core/entity"
	"rfidstock/pkg/logger"
)

// Server methods that map a submitted document onto its follow-up document.
const (
	MethodMakeStockEntry   = "erpnext.stock.doctype.material_request.material_request.make_stock_entry"
	MethodMakeDeliveryNote = "erpnext.selling.doctype.sales_order.sales_order.make_delivery_note"
	MethodReportView       = "frappe.desk.reportview.get"
)

const (
	doctypeMaterialRequest = "Material Request"
	doctypeStockEntry      = "Stock Entry"
	doctypeSalesOrder      = "Sales Order"
	doctypeDeliveryNote    = "Delivery Note"
)

// MakeStockEntry creates the Stock Entry that fulfils a submitted Material Request.
func (s *Service) MakeStockEntry(ctx context.Context, materialRequest string) (Doc, error) {
	return s.makeFollowUp(ctx, doctypeMaterialRequest, materialRequest, doctypeStockEntry,
		MethodMakeStockEntry, map[string]any{"source_name": materialRequest})
}

// MakeDeliveryNote creates the Delivery Note for a submitted Sales Order.
func (s *Service) MakeDeliveryNote(ctx context.Context, salesOrder string) (Doc, error) {
	return s.makeFollowUp(ctx, doctypeSalesOrder, salesOrder, doctypeDeliveryNote,
		MethodMakeDeliveryNote, map[string]any{
			"source_name": salesOrder,
			"args": map[string]any{
				"delivery_dates":     []string{},
				"for_reserved_stock": true,
			},
			"selected_children": map[string]any{},
		})
}

func (s *Service) makeFollowUp(
	ctx context.Context,
	sourceDoctype, sourceName, targetDoctype, method string,
	params map[string]any,
) (Doc, error) {
	target, err := s.kinds.Kind(targetDoctype)
	if err != nil {
		return nil, err
	}

	var source entity.Document
	if err := s.repo.GetDoc(ctx, sourceDoctype, sourceName, &source); err != nil {
		return nil, err
	}
	if source.DocStatus != entity.DocStatusSubmitted {
		return nil, apperror.NewDocumentNotSubmitted(sourceDoctype, sourceName).
			WithDetail("docstatus", source.DocStatus.String())
	}

	mapped := map[string]any{}
	if err := s.repo.Call(ctx, method, params, &mapped); err != nil {
		return nil, fmt.Errorf("map %s %s: %w", sourceDoctype, sourceName, err)
	}

	created := target.New()
	if err := s.repo.CreateDoc(ctx, targetDoctype, mapped, created); err != nil {
		return nil, fmt.Errorf("create %s: %w", targetDoctype, err)
	}

	logger.Info(ctx, "follow-up document created",
		"source_doctype", sourceDoctype,
		"source", sourceName,
		"doctype", targetDoctype,
		"name", created.Header().Name)

	return created, nil
}

// StockEntryRef is a Stock Entry that fulfils a Material Request.
type StockEntryRef struct {
	Name      string           `json:"name"`
	DocStatus entity.DocStatus `json:"docstatus"`
	Purpose   string           `json:"purpose"`
}

// LinkedStockEntries lists the Stock Entries created from a Material Request.
func (s *Service) LinkedStockEntries(ctx context.Context, materialRequest string) ([]StockEntryRef, error) {
	params := map[string]any{
		"doctype": doctypeStockEntry,
		"fields":  []string{"name", "docstatus", "purpose"},
		"filters": [][]string{{"Stock Entry Detail", "material_request", "=", materialRequest}},
	}

	// rows come back positionally: keys are listed once, values per row
	var report struct {
		Keys   []string `json:"keys"`
		Values [][]any  `json:"values"`
	}
	if err := s.repo.Call(ctx, MethodReportView, params, &report); err != nil {
		return nil, fmt.Errorf("linked stock entries of %s: %w", materialRequest, err)
	}

	refs := make([]StockEntryRef, 0, len(report.Values))
	for _, row := range report.Values {
		if len(row) < 3 {
			continue
		}
		name, _ := row[0].(string)
		purpose, _ := row[2].(string)
		refs = append(refs, StockEntryRef{
			Name:      name,
			DocStatus: docStatus(row[1]),
			Purpose:   purpose,
		})
	}
	return refs, nil
}

// Package i18n holds the user-facing message catalog (English and Vietnamese).
package i18n

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	appctx "rfidstock/internal/core/context"
)

// Message keys. The English text doubles as the key.
const (
	MsgRequired      = "%s is required"
	MsgRequiredInRow = "%s is required in row %d"
	MsgAtLeastOneRow = "%s needs at least one row"
	MsgNotANumber    = "%s must be a number"
	MsgNotAnOption   = "%s has an invalid value"

	MsgTagAttached          = "Tag attached"
	MsgTagUnknown           = "Tag is not registered"
	MsgTagAlreadyLinked     = "Tag is already linked to this document"
	MsgTagWrongWarehouse    = "Tag belongs to another warehouse"
	MsgTagItemNotInDocument = "Tag item is not in this document"
)

// Supported lists the languages with a translation; the first is the fallback.
var Supported = []language.Tag{language.English, language.Vietnamese}

var (
	matcher = language.NewMatcher(Supported)
	cat     = build()
)

func build() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	vi := map[string]string{
		MsgRequired:      "%s là bắt buộc",
		MsgRequiredInRow: "%s là bắt buộc ở dòng %d",
		MsgAtLeastOneRow: "%s cần ít nhất một dòng",
		MsgNotANumber:    "%s phải là số",
		MsgNotAnOption:   "%s có giá trị không hợp lệ",

		MsgTagAttached:          "Đã gắn thẻ",
		MsgTagUnknown:           "Thẻ chưa được đăng ký",
		MsgTagAlreadyLinked:     "Thẻ đã được gắn vào chứng từ này",
		MsgTagWrongWarehouse:    "Thẻ thuộc kho khác",
		MsgTagItemNotInDocument: "Mặt hàng của thẻ không có trong chứng từ",
	}

	for key, text := range vi {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Vietnamese, key, text)
	}
	return b
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Printer returns a printer bound to the catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// T formats key in the language stored in ctx.
func T(ctx context.Context, key string, args ...any) string {
	return Printer(appctx.GetLocale(ctx)).Sprintf(key, args...)
}

package money

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Monto is a request-side amount. It decodes JSON numbers and numeric
// strings through ParseStrict so a mistyped amount is rejected instead of
// silently turning into zero.
type Monto struct {
	decimal.Decimal
}

// NewMonto wraps an already-parsed amount.
func NewMonto(raw any) Monto { return Monto{Decimal: Parse(raw)} }

func (m *Monto) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.Decimal = decimal.Zero
		return nil
	}
	var raw any = json.Number(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrMontoInvalido, data)
		}
		raw = s
	}
	d, err := ParseStrict(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMontoInvalido, data)
	}
	m.Decimal = d
	return nil
}

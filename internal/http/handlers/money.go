package handlers

import (
	"bytes"
	"encoding/json"

	"tourledger/internal/utils"

	"github.com/shopspring/decimal"
)

// money accepts a JSON number or a string such as "1234.56", "1.234,56" or "R$ 1.234,56".
type money struct {
	decimal.Decimal
}

func (m *money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		m.Decimal = decimal.Zero
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		d, err := utils.ParseMoney(s)
		if err != nil {
			return err
		}
		m.Decimal = d
		return nil
	}
	return m.Decimal.UnmarshalJSON(b)
}

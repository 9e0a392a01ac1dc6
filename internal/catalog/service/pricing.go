package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"catalog-service/internal/catalog/model"
)

var (
	hundred     = decimal.NewFromInt(100)
	ten         = decimal.NewFromInt(10)
	costFactor  = decimal.RequireFromString("0.6") // оценка себестоимости, не измеренная
	fallbackCut = decimal.RequireFromString("0.8")
)

// PriceInput: уже извлечённые поля строки.
type PriceInput struct {
	Sheet       string
	RowNumber   int
	Type        string
	Model       string
	Description string
	Brand       string
	PriceRaw    string
	PriceBase   float64
}

// Price считает цены по каналам. Строка без цены (base=0) не отбрасывается,
// а помечается sin_precio.
func Price(in PriceInput, cfg model.Configuration, eq model.Equivalence) model.ProductRecord {
	discount := cfg.DiscountFor(in.Brand)
	keep := hundred.Sub(decimal.NewFromFloat(discount)).Div(hundred)

	// без собственной цены эквивалентность не применяется: оба канала 0
	if in.PriceBase <= 0 {
		eq = model.NoMatch()
	}
	base := decimal.NewFromFloat(in.PriceBase)
	wholesaleSrc := base
	if eq.Found && eq.ReferencePrice > 0 {
		wholesaleSrc = decimal.NewFromFloat(eq.ReferencePrice)
	}
	baseRetail := base.Mul(keep)
	baseWholesale := wholesaleSrc.Mul(keep)

	vat := decimal.NewFromFloat(cfg.VAT)
	retail := channel(baseRetail, cfg.Markups.Retail, cfg.Commissions.Retail, vat)
	wholesale := channel(baseWholesale, cfg.Markups.Wholesale, cfg.Commissions.Wholesale, vat)

	adjusted := false
	if wholesale.final.GreaterThanOrEqual(retail.final) && retail.final.IsPositive() {
		wholesale = correctWholesale(retail.final, baseWholesale, cfg.Markups.Wholesale, cfg.Commissions.Wholesale, vat)
		adjusted = true
	}

	return model.ProductRecord{
		Sheet:       in.Sheet,
		RowNumber:   in.RowNumber,
		Type:        in.Type,
		Model:       in.Model,
		Description: in.Description,
		Brand:       in.Brand,

		PriceRaw:              in.PriceRaw,
		PriceBase:             in.PriceBase,
		Discount:              discount,
		PriceBaseRetail:       baseRetail.InexactFloat64(),
		PriceBaseWholesale:    baseWholesale.InexactFloat64(),
		CostEstimateRetail:    baseRetail.Mul(costFactor).InexactFloat64(),
		CostEstimateWholesale: baseWholesale.Mul(costFactor).InexactFloat64(),

		Equivalence: eq,
		Retail:      retail.export(false),
		Wholesale:   wholesale.export(adjusted),
		Currency:    ValidateCurrency(in.PriceRaw),

		Unpriced:          in.PriceBase <= 0,
		WholesaleAdjusted: adjusted,
	}
}

type channelCalc struct {
	net, final, markup, profitability, commission decimal.Decimal
}

func channel(base decimal.Decimal, markup, commission float64, vat decimal.Decimal) channelCalc {
	mk := decimal.NewFromFloat(markup)
	net := base.Mul(hundred.Add(mk)).Div(hundred)
	final := RoundTo10(withVAT(net, vat))
	return channelCalc{
		net:           net,
		final:         final,
		markup:        mk,
		profitability: profitability(net, base),
		commission:    decimal.NewFromFloat(commission),
	}
}

// correctWholesale: крайняя мера, mayorista = 80% minorista, округлить,
// и гарантировать строгое «меньше» шагом 10.
func correctWholesale(retailFinal, base decimal.Decimal, markup, commission float64, vat decimal.Decimal) channelCalc {
	final := RoundTo10(retailFinal.Mul(fallbackCut))
	for final.GreaterThanOrEqual(retailFinal) && final.IsPositive() {
		final = final.Sub(ten)
	}
	net := final.Div(hundred.Add(vat).Div(hundred))
	return channelCalc{
		net:           net,
		final:         final,
		markup:        decimal.NewFromFloat(markup),
		profitability: profitability(net, base),
		commission:    decimal.NewFromFloat(commission),
	}
}

func (c channelCalc) export(adjusted bool) model.ChannelPricing {
	p := c.profitability.Round(2)
	return model.ChannelPricing{
		Net:              c.net.Round(2).InexactFloat64(),
		Final:            c.final.InexactFloat64(),
		Markup:           c.markup.InexactFloat64(),
		Profitability:    p.InexactFloat64(),
		ProfitabilityPct: fmt.Sprintf("%s%%", p.StringFixed(2)),
		Rentable:         c.net.IsPositive() && c.profitability.GreaterThan(c.commission),
		Adjusted:         adjusted,
	}
}

func withVAT(net, vat decimal.Decimal) decimal.Decimal {
	return net.Mul(hundred.Add(vat)).Div(hundred)
}

// profitability = (net - base) / net * 100; 0 при net = 0.
func profitability(net, base decimal.Decimal) decimal.Decimal {
	if net.IsZero() {
		return decimal.Zero
	}
	return net.Sub(base).Div(net).Mul(hundred)
}

// RoundTo10: ближайшее кратное 10, половина вверх.
func RoundTo10(v decimal.Decimal) decimal.Decimal {
	return v.Div(ten).Round(0).Mul(ten)
}

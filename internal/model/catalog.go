package model

import "strings"

var Categories = []string{
	"Arábica",
	"Robusta",
	"Mezcla",
	"Espresso",
	"Descafeinado",
	"Orgánico",
	"Tostado Claro",
	"Tostado Medio",
	"Tostado Oscuro",
	"Premium",
}

var GrindTypes = []string{
	"Grano Entero",
	"Molido Grueso",
	"Molido Medio",
	"Molido Fino",
	"Molido Extra Fino",
}

type PaymentMethod struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var PaymentMethods = []PaymentMethod{
	{ID: "card", Label: "Tarjeta de Crédito/Débito"},
	{ID: "cash", Label: "Efectivo"},
	{ID: "transfer", Label: "Transferencia Bancaria"},
}

// LookupPaymentMethod matches an id or a label, ignoring case.
func LookupPaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentMethods {
		if strings.EqualFold(m.ID, s) || strings.EqualFold(m.Label, s) {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// Package forms holds the declarative field specs of every audited form.
package forms

import (
	"sort"
	"sync"

	"github.com/spec-kit/ticket-activity/internal/diff"
	"github.com/spec-kit/ticket-activity/internal/domain"
)

// excludedKeys are bookkeeping columns present on every form row.
var excludedKeys = []string{"id", "ticketId", "createdAt", "updatedAt", "createdBy", "updatedBy", "deletedAt"}

// Definition describes one form type.
type Definition struct {
	Type domain.FormType
	// MultiInstance forms may hold several records per ticket (e.g. trade-ins).
	MultiInstance bool
	Spec          diff.FieldSpec
}

// Registry resolves a form type (summary variants included) to its definition.
type Registry struct {
	mu    sync.RWMutex
	forms map[domain.FormType]Definition
}

// NewRegistry returns a registry preloaded with the built-in forms.
func NewRegistry(lookups Lookups) *Registry {
	r := &Registry{forms: make(map[domain.FormType]Definition)}
	for _, def := range builtin(lookups) {
		r.Register(def)
	}
	return r
}

// Register adds or replaces a definition. Missing exclusions default to the shared set.
func (r *Registry) Register(def Definition) {
	if def.Spec.Excluded == nil {
		def.Spec.Excluded = diff.NewExcluded(excludedKeys...)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms[def.Type.Base()] = def
}

// Lookup returns the definition for ft; summary-flow variants share their base form's spec.
func (r *Registry) Lookup(ft domain.FormType) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.forms[ft.Base()]
	return def, ok
}

// Types lists registered base form types.
func (r *Registry) Types() []domain.FormType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.FormType, 0, len(r.forms))
	for ft := range r.forms {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func builtin(l Lookups) []Definition {
	state := LabelTransform(l.States)
	odometer := LabelTransform(l.OdometerCodes)
	payment := LabelTransform(l.PaymentMethods)

	return []Definition{
		{
			Type: domain.FormTitleInfo,
			Spec: diff.FieldSpec{Fields: []diff.Field{
				{Key: "currentTitle", Label: "Current Title"},
				{Key: "titleNumber", Label: "Title Number"},
				{Key: "titleState", Label: "Title State", Transform: state},
				{Key: "issueDate", Label: "Issue Date"},
				{Key: "vin", Label: "VIN"},
				{Key: "odometerReading", Label: "Odometer Reading"},
				{Key: "odometerCode", Label: "Odometer Code", Transform: odometer},
				{Key: "brands", Label: "Title Brands"},
				{Key: "ownerNames", Label: "Owner Names"},
				{Key: "isElectronic", Label: "Electronic Title", Transform: YesNo},
			}},
		},
		{
			Type: domain.FormRegistration,
			Spec: diff.FieldSpec{Fields: []diff.Field{
				{Key: "plateNumber", Label: "Plate Number"},
				{Key: "registrationState", Label: "Registration State", Transform: state},
				{Key: "expirationDate", Label: "Expiration Date"},
				{Key: "vehicleClass", Label: "Vehicle Class"},
				{Key: "grossWeight", Label: "Gross Weight"},
				{Key: "isTemporary", Label: "Temporary Registration", Transform: YesNo},
			}},
		},
		{
			Type: domain.FormBilling,
			Spec: diff.FieldSpec{Fields: []diff.Field{
				{Key: "amountDue", Label: "Amount Due"},
				{Key: "amountPaid", Label: "Amount Paid"},
				{Key: "paymentMethod", Label: "Payment Method", Transform: payment},
				{Key: "invoiceNumber", Label: "Invoice Number"},
				{Key: "dueDate", Label: "Due Date"},
				{Key: "feeItems", Label: "Fee Items"},
			}},
		},
		{
			Type: domain.FormLien,
			Spec: diff.FieldSpec{Fields: []diff.Field{
				{Key: "lienholderName", Label: "Lienholder Name"},
				{Key: "lienholderAddress", Label: "Lienholder Address"},
				{Key: "lienholderState", Label: "Lienholder State", Transform: state},
				{Key: "lienAmount", Label: "Lien Amount"},
				{Key: "lienDate", Label: "Lien Date"},
				{Key: "releaseDate", Label: "Release Date"},
				{Key: "isReleased", Label: "Lien Released", Transform: YesNo},
			}},
		},
		{
			Type: domain.FormInsurance,
			Spec: diff.FieldSpec{Fields: []diff.Field{
				{Key: "carrier", Label: "Insurance Carrier"},
				{Key: "policyNumber", Label: "Policy Number"},
				{Key: "effectiveDate", Label: "Effective Date"},
				{Key: "expirationDate", Label: "Expiration Date"},
				{Key: "agentName", Label: "Agent Name"},
				{Key: "agentPhone", Label: "Agent Phone"},
			}},
		},
		{
			Type:          domain.FormTradeIn,
			MultiInstance: true,
			Spec: diff.FieldSpec{Fields: []diff.Field{
				{Key: "vin", Label: "VIN"},
				{Key: "year", Label: "Year"},
				{Key: "make", Label: "Make"},
				{Key: "model", Label: "Model"},
				{Key: "mileage", Label: "Mileage"},
				{Key: "allowance", Label: "Trade Allowance"},
				{Key: "payoffAmount", Label: "Payoff Amount"},
				{Key: "payoffLender", Label: "Payoff Lender"},
			}},
		},
	}
}

package service

import (
	"context"
	"fmt"
	"strings"

	"perfume-backoffice/internal/cache"
	"perfume-backoffice/internal/form"
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/schema"
	"perfume-backoffice/internal/store"

	"go.uber.org/zap"
)

// CustomerForm is the editable part of a customer. The store-maintained
// aggregates have no field here.
type CustomerForm struct {
	Name         string              `json:"name" validate:"required,notblank"`
	Phone        string              `json:"phone"`
	Email        string              `json:"email" validate:"omitempty,email"`
	Address      string              `json:"address"`
	City         string              `json:"city"`
	CustomerType models.CustomerType `json:"customer_type" validate:"oneof=New Regular VIP"`
	Notes        string              `json:"notes"`
}

func defaultCustomerForm() CustomerForm {
	return CustomerForm{CustomerType: models.CustomerNew}
}

// CustomerFormFrom seeds a form from the full customer.
func CustomerFormFrom(c models.Customer) CustomerForm {
	f := CustomerForm{
		Name:         c.Name,
		Phone:        c.Phone,
		Email:        c.Email,
		Address:      c.Address,
		City:         c.City,
		CustomerType: c.CustomerType,
		Notes:        c.Notes,
	}
	if f.CustomerType == "" {
		f.CustomerType = models.CustomerNew
	}
	return f
}

func (f CustomerForm) Create() models.CustomerCreate {
	return models.CustomerCreate{
		Name:         strings.TrimSpace(f.Name),
		Phone:        f.Phone,
		Email:        f.Email,
		Address:      f.Address,
		City:         f.City,
		CustomerType: f.CustomerType,
		Notes:        f.Notes,
	}
}

// Update sends every form field; optional fields left empty are cleared.
func (f CustomerForm) Update() models.CustomerUpdate {
	name := strings.TrimSpace(f.Name)
	ct := f.CustomerType
	return models.CustomerUpdate{
		Name:         &name,
		Phone:        patchString(f.Phone),
		Email:        patchString(f.Email),
		Address:      patchString(f.Address),
		City:         patchString(f.City),
		CustomerType: &ct,
		Notes:        patchString(f.Notes),
	}
}

type CustomerService struct {
	deps Deps
	coll *cache.Collection[models.Customer]
	edit *editor[CustomerForm]
}

func NewCustomerService(d Deps) *CustomerService {
	s := &CustomerService{
		deps: d,
		edit: newEditor(form.New(defaultCustomerForm(), form.Struct[CustomerForm](form.Messages{
			"name": "Customer name is required",
		}))),
	}
	s.coll = cache.NewCollection(store.TableCustomers, s.fetch,
		func(c models.Customer) string { return c.ID }, d.options(true))
	d.register(s.coll)
	return s
}

func (s *CustomerService) fetch(ctx context.Context) ([]models.Customer, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	rows, err := s.deps.Store.Select(ctx, store.TableCustomers, store.Query{OrderBy: "created_at", Desc: true})
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	customers, diags := schema.ParseCustomers(rows)
	logDiagnostics("customer", diags)
	return customers, nil
}

func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	return s.coll.Get(ctx)
}

func (s *CustomerService) State() cache.State[models.Customer] {
	return s.coll.State()
}

func (s *CustomerService) Invalidate(ctx context.Context) {
	s.coll.Invalidate(ctx)
}

// Search returns the customers whose name contains query, ignoring case.
// An empty query matches everyone.
func (s *CustomerService) Search(ctx context.Context, query string) ([]models.Customer, error) {
	customers, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterCustomers(customers, query), nil
}

func FilterCustomers(customers []models.Customer, query string) []models.Customer {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Customer, 0, len(customers))
	for _, c := range customers {
		if q == "" || strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

func (s *CustomerService) Create(ctx context.Context, in models.CustomerCreate) (models.Customer, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	row, err := s.deps.Store.Insert(ctx, store.TableCustomers, store.Record(in.Record()))
	if err != nil {
		return models.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return s.merge(ctx, row, in.Name), nil
}

func (s *CustomerService) Update(ctx context.Context, id string, in models.CustomerUpdate) (models.Customer, error) {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	row, err := s.deps.Store.Update(ctx, store.TableCustomers, id, store.Record(in.Record()))
	if err != nil {
		return models.Customer{}, fmt.Errorf("update customer %s: %w", id, err)
	}
	return s.merge(ctx, row, ""), nil
}

// merge upserts the row returned by a mutation. A row that does not parse
// marks the collection stale instead.
func (s *CustomerService) merge(ctx context.Context, row store.Record, name string) models.Customer {
	c, err := schema.ParseCustomer(row)
	if err != nil {
		zap.S().Warnw("mutation returned an invalid customer; refetching", "id", row.ID(), "error", err)
		s.coll.Invalidate(ctx)
		return models.Customer{ID: row.ID(), Name: name}
	}
	s.coll.Upsert(ctx, c)
	return c
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.deps.remote(ctx)
	defer cancel()

	if err := s.deps.Store.Delete(ctx, store.TableCustomers, id); err != nil {
		return fmt.Errorf("delete customer %s: %w", id, err)
	}
	s.coll.Evict(ctx, id)
	return nil
}

func (s *CustomerService) BeginEdit(c models.Customer)  { s.edit.begin(c.ID, CustomerFormFrom(c)) }
func (s *CustomerService) BeginCreate()                 { s.edit.beginNew() }
func (s *CustomerService) CancelEdit()                  { s.edit.cancel() }
func (s *CustomerService) EndEdit()                     { s.edit.cancel() }
func (s *CustomerService) Session() Session             { return s.edit.session() }
func (s *CustomerService) Form() FormView[CustomerForm] { return s.edit.view() }

// UpdateForm changes the values of the open session's form.
func (s *CustomerService) UpdateForm(fn func(*CustomerForm)) error {
	return s.edit.update(fn)
}

// Submit persists the form: a create when the session is new, else an update
// of the session target.
func (s *CustomerService) Submit(ctx context.Context) (models.Customer, error) {
	var saved models.Customer
	err := s.edit.submit(func(sub submission[CustomerForm]) error {
		var err error
		if sub.target == "" {
			saved, err = s.Create(ctx, sub.values.Create())
		} else {
			saved, err = s.Update(ctx, sub.target, sub.values.Update())
		}
		return err
	})
	return saved, err
}

package billing

import (
	"sort"
	"sync"

	"hospital-backend/models"
)

// memStore is an in-memory Store for tests. Transact takes a single lock, so
// concurrent calls serialize exactly like per-bill row locking would (all
// tests operate on one bill at a time).
type memStore struct {
	mu sync.Mutex
	memView
}

type memView struct {
	bills    map[string]*models.Bill
	payments []*models.Payment
	seq      uint
}

func newMemStore() *memStore {
	return &memStore{memView: memView{bills: make(map[string]*models.Bill)}}
}

func (m *memStore) Transact(fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(&m.memView)
}

// memView is the "inside a transaction" face; it must not take the lock again.
func (v *memView) Transact(fn func(Store) error) error { return fn(v) }

func (v *memView) BillByID(billID string) (*models.Bill, error) {
	b, ok := v.bills[billID]
	if !ok {
		return nil, NotFoundf("bill %s not found", billID)
	}
	cp := *b
	return &cp, nil
}

func (v *memView) BillForUpdate(billID string) (*models.Bill, error) {
	return v.BillByID(billID)
}

func (v *memView) ListBills(f BillFilter) ([]models.Bill, error) {
	var out []models.Bill
	for _, b := range v.bills {
		if f.PatientID != 0 && b.PId != f.PatientID {
			continue
		}
		if f.Status != "" && b.PaymentStatus != f.Status {
			continue
		}
		if f.From != nil && b.BillDate.Before(*f.From) {
			continue
		}
		if f.To != nil && b.BillDate.After(*f.To) {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillDate.After(out[j].BillDate) })
	return out, nil
}

func (v *memView) CreateBill(b *models.Bill) error {
	v.seq++
	b.ID = v.seq
	cp := *b
	v.bills[b.BillID] = &cp
	return nil
}

func (v *memView) UpdateBill(b *models.Bill) error {
	cp := *b
	v.bills[b.BillID] = &cp
	return nil
}

func (v *memView) DeleteBill(b *models.Bill) error {
	kept := v.payments[:0]
	for _, p := range v.payments {
		if p.BillID != b.BillID {
			kept = append(kept, p)
		}
	}
	v.payments = kept
	delete(v.bills, b.BillID)
	return nil
}

func (v *memView) CreatePayment(p *models.Payment) error {
	v.seq++
	p.ID = v.seq
	cp := *p
	v.payments = append(v.payments, &cp)
	return nil
}

func (v *memView) UpdatePayment(p *models.Payment) error {
	for i, row := range v.payments {
		if row.TransactionID == p.TransactionID {
			cp := *p
			v.payments[i] = &cp
			return nil
		}
	}
	return NotFoundf("payment %s not found", p.TransactionID)
}

func (v *memView) PaymentsByBill(billID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range v.payments {
		if p.BillID == billID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (v *memView) PaymentByTransactionID(txnID string) (*models.Payment, error) {
	for _, p := range v.payments {
		if p.TransactionID == txnID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, NotFoundf("payment %s not found", txnID)
}

func (v *memView) PaymentByGatewayPaymentID(gatewayPaymentID string) (*models.Payment, error) {
	for _, p := range v.payments {
		if p.GatewayPaymentID != nil && *p.GatewayPaymentID == gatewayPaymentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, NotFoundf("payment %s not found", gatewayPaymentID)
}

func (v *memView) PendingPaymentByOrderID(gatewayOrderID string) (*models.Payment, error) {
	for _, p := range v.payments {
		if p.Status == models.TxnPending && p.GatewayOrderID != nil && *p.GatewayOrderID == gatewayOrderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, NotFoundf("payment %s not found", gatewayOrderID)
}

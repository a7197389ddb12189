package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iliyamo/festival-reservation/internal/model"
	"github.com/iliyamo/festival-reservation/internal/service"
)

type mockReservations struct{ mock.Mock }

func (m *mockReservations) Create(ctx context.Context, in service.CreateReservationInput) (*model.Reservation, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*model.Reservation)
	return res, args.Error(1)
}

func (m *mockReservations) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*model.Reservation)
	return res, args.Error(1)
}

func (m *mockReservations) ListByFestival(ctx context.Context, id uint64) ([]model.Reservation, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]model.Reservation)
	return list, args.Error(1)
}

func (m *mockReservations) ListByEditor(ctx context.Context, id uint64) ([]model.Reservation, error) {
	args := m.Called(ctx, id)
	list, _ := args.Get(0).([]model.Reservation)
	return list, args.Error(1)
}

func (m *mockReservations) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockReservations) UpdateStatus(ctx context.Context, id uint64, status string) (*model.Reservation, error) {
	args := m.Called(ctx, id, status)
	res, _ := args.Get(0).(*model.Reservation)
	return res, args.Error(1)
}

func (m *mockReservations) UpdateFields(ctx context.Context, id uint64, p service.ReservationPatch) (*model.Reservation, error) {
	args := m.Called(ctx, id, p)
	res, _ := args.Get(0).(*model.Reservation)
	return res, args.Error(1)
}

type mockInvoices struct{ mock.Mock }

func (m *mockInvoices) Issue(ctx context.Context, id uint64) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*model.Invoice)
	return inv, args.Error(1)
}

func (m *mockInvoices) MarkPaid(ctx context.Context, id uint64) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*model.Invoice)
	return inv, args.Error(1)
}

func (m *mockInvoices) GetByReservation(ctx context.Context, id uint64) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*model.Invoice)
	return inv, args.Error(1)
}

type mockZones struct{ mock.Mock }

func (m *mockZones) CreateZone(ctx context.Context, in service.CreateZoneInput) (*model.Zone, error) {
	args := m.Called(ctx, in)
	z, _ := args.Get(0).(*model.Zone)
	return z, args.Error(1)
}

func (m *mockZones) ListZones(ctx context.Context, festivalID uint64) ([]model.Zone, error) {
	args := m.Called(ctx, festivalID)
	zones, _ := args.Get(0).([]model.Zone)
	return zones, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Create(ctx context.Context, email, password, role string, cost int) (uint64, error) {
	args := m.Called(ctx, email, password, role, cost)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-pg-salaries/internal/client"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/errors"
	"github.com/pesio-ai/be-pg-salaries/internal/pkg/logger"
	"github.com/pesio-ai/be-pg-salaries/internal/repository"
	"github.com/pesio-ai/be-pg-salaries/internal/salary"
	"github.com/pesio-ai/be-pg-salaries/internal/service/servicetest"
)

const (
	testPG       = "0b7c2a64-3f0e-4b8a-9f55-6a1d2f3e4c10"
	testBranch   = "5d0e9b1a-7c24-4e61-8a3b-2f9c6d8e1a22"
	otherBranch  = "8e1f0c2b-6d35-4f72-9b4c-3a0d7e9f2b33"
	ravi         = "1a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
	suresh       = "2b3c4d5e-6f7a-4b8c-9d0e-1f2a3b4c5d6e"
	inactive     = "3c4d5e6f-7a8b-4c9d-0e1f-2a3b4c5d6e7f"
	testUser     = "owner-1"
	testWindow   = 4 * time.Hour
	missingID    = "9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
	receiptBytes = 2048
)

type env struct {
	svc      *SalaryService
	store    *servicetest.Store
	audit    *servicetest.Audit
	receipts *servicetest.Receipts
	events   *servicetest.Events
	clock    *servicetest.Clock
}

func newEnv(t *testing.T, policy salary.NumericPolicy) *env {
	t.Helper()
	return newEnvWith(t, policy, nil)
}

// newEnvWith lets wrap put a store in front of the in-memory one
func newEnvWith(t *testing.T, policy salary.NumericPolicy, wrap func(*servicetest.Store) SalaryStore) *env {
	t.Helper()
	e := &env{
		store:    servicetest.NewStore(),
		audit:    &servicetest.Audit{},
		receipts: servicetest.NewReceipts(),
		events:   &servicetest.Events{},
		clock:    servicetest.NewClock(time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)),
	}
	dir := servicetest.Directory{
		ravi:     {ID: ravi, PGID: testPG, BranchID: testBranch, Name: "Ravi", IsActive: true},
		suresh:   {ID: suresh, PGID: testPG, BranchID: otherBranch, Name: "Suresh", IsActive: true},
		inactive: {ID: inactive, PGID: testPG, BranchID: testBranch, Name: "Gone", IsActive: false},
	}
	var store SalaryStore = e.store
	if wrap != nil {
		store = wrap(e.store)
	}
	e.svc = NewSalaryService(store, dir, e.audit, client.NewKeyedMutex(), e.receipts, e.events, Options{
		Clock:         e.clock,
		EditWindow:    testWindow,
		NumericPolicy: policy,
		MinYear:       2020,
		MaxYear:       2030,
	}, logger.Nop())
	return e
}

// marchRequest is 15000 base + 2000 bonus + 10h x 300 overtime - 300
// deductions: gross 20000, net 19700.
func marchRequest(maintainerID string) *CreateSalaryRequest {
	return &CreateSalaryRequest{
		PGID:         testPG,
		CreatedBy:    testUser,
		MaintainerID: maintainerID,
		Month:        "March",
		Year:         "2024",
		ComponentsInput: ComponentsInput{
			BaseSalary: "15000",
			Bonus:      "2000",
			Overtime:   &OvertimeInput{Hours: "10", Rate: "300"},
			Deductions: &DeductionsInput{Other: "300"},
		},
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, errors.Code(err), err.Error())
}

func pay(e *env, id, amount string) (*salary.View, error) {
	return e.svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		SalaryID:     id,
		PGID:         testPG,
		PaidBy:       testUser,
		PaymentInput: PaymentInput{Amount: salary.RawNumber(amount), PaymentMethod: "cash"},
	})
}

func TestCreateSalary(t *testing.T) {
	e := newEnv(t, salary.NumericReject)

	v, err := e.svc.CreateSalary(context.Background(), marchRequest(ravi))
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, testBranch, v.BranchID)
	assertDec(t, "3000", v.Overtime.Amount)
	assertDec(t, "20000", v.GrossSalary)
	assertDec(t, "300", v.TotalDeductions)
	assertDec(t, "19700", v.NetSalary)
	assertDec(t, "19700", v.PendingAmount)
	assert.Equal(t, salary.StatusPending, v.Status)
	assert.Equal(t, salary.DisplayPending, v.CalculatedStatus)
	assert.True(t, v.CanEdit)
	assert.Nil(t, v.RemainingEditTime)

	assert.Equal(t, []string{repository.AuditActionCreated}, e.audit.Actions())
	assert.Equal(t, []string{client.EventSalaryCreated}, e.events.List())
}

func TestCreateSalaryValidation(t *testing.T) {
	e := newEnv(t, salary.NumericReject)

	req := marchRequest(ravi)
	req.Month = "Marchh"
	req.Year = "2019"
	req.Bonus = "-5"
	req.BaseSalary = "abc"

	_, err := e.svc.CreateSalary(context.Background(), req)
	assertCode(t, err, errors.ErrCodeValidation)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	for _, field := range []string{"month", "year", "bonus", "baseSalary"} {
		assert.Contains(t, appErr.Fields, field)
	}
	assert.Empty(t, e.audit.Actions())

	missing := marchRequest(ravi)
	missing.BaseSalary = ""
	_, err = e.svc.CreateSalary(context.Background(), missing)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "is required", appErr.Fields["baseSalary"])
}

func TestCreateSalaryCoercePolicy(t *testing.T) {
	e := newEnv(t, salary.NumericCoerce)

	req := marchRequest(ravi)
	req.BaseSalary = "abc"
	req.Overtime = nil
	req.Deductions = nil

	v, err := e.svc.CreateSalary(context.Background(), req)
	require.NoError(t, err)
	assertDec(t, "0", v.BaseSalary)
	assertDec(t, "2000", v.NetSalary)
}

func TestCreateSalaryRejectsNegativeNet(t *testing.T) {
	e := newEnv(t, salary.NumericReject)

	req := marchRequest(ravi)
	req.Deductions = &DeductionsInput{Other: "25000"}

	_, err := e.svc.CreateSalary(context.Background(), req)
	assertCode(t, err, errors.ErrCodeValidation)
	assert.Contains(t, err.Error(), "deductions.other")
}

func TestCreateSalaryMaintainerChecks(t *testing.T) {
	e := newEnv(t, salary.NumericReject)
	ctx := context.Background()

	_, err := e.svc.CreateSalary(ctx, marchRequest(missingID))
	assertCode(t, err, errors.ErrCodeNotFound)

	_, err = e.svc.CreateSalary(ctx, marchRequest(inactive))
	assertCode(t, err, errors.ErrCodeInvalidInput)

	req := marchRequest(suresh)
	req.BranchID = testBranch
	_, err = e.svc.CreateSalary(ctx, req)
	assertCode(t, err, errors.ErrCodeInvalidInput)
}

func TestCreateSalaryWithFullPayment(t *testing.T) {
	e := newEnv(t, salary.NumericReject)

	req := marchRequest(ravi)
	req.Payment = &PaymentInput{Amount: "19700", PaymentMethod: "upi"}
	req.Receipt = &client.ReceiptUpload{OriginalName: "slip.png", ContentType: "image/png", Size: receiptBytes, Body: strings.NewReader("x")}

	v, err := e.svc.CreateSalary(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, salary.StatusPaid, v.Status)
	assertDec(t, "0", v.PendingAmount)
	require.NotNil(t, v.EditLockExpiresAt)
	assert.Equal(t, e.clock.Now().Add(testWindow), *v.EditLockExpiresAt)
	require.NotNil(t, v.RemainingEditTime)
	assert.EqualValues(t, 240, *v.RemainingEditTime)
	require.Len(t, v.Payments, 1)
	assert.Equal(t, testUser, v.Payments[0].PaidBy)
	require.NotNil(t, v.Payments[0].ReceiptImage)
	assert.Equal(t, "slip.png", v.Payments[0].ReceiptImage.OriginalName)

	assert.Equal(t, []string{client.EventSalaryCreated, client.EventSalaryPaid}, e.events.List())
}

func TestCreateSalaryExistingPeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("editable record is updated", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		first, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		again := marchRequest(ravi)
		again.Bonus = "3000"
		again.Payment = &PaymentInput{Amount: "5000"}
		second, err := e.svc.CreateSalary(ctx, again)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assertDec(t, "20700", second.NetSalary)
		assertDec(t, "5000", second.PaidAmount)
		assert.Equal(t, salary.StatusPartiallyPaid, second.Status)
		assert.Equal(t, []string{
			repository.AuditActionCreated,
			repository.AuditActionUpdated,
			repository.AuditActionPaymentRecorded,
		}, e.audit.Actions())
	})

	t.Run("locked record conflicts", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		req := marchRequest(ravi)
		req.Payment = &PaymentInput{Amount: "19700"}
		_, err := e.svc.CreateSalary(ctx, req)
		require.NoError(t, err)

		e.clock.Advance(5 * time.Hour)
		_, err = e.svc.CreateSalary(ctx, marchRequest(ravi))
		assertCode(t, err, errors.ErrCodeConflict)
	})

	t.Run("payment over the merged pending amount changes nothing", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		first, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)
		_, err = pay(e, first.ID, "15000")
		require.NoError(t, err)

		again := marchRequest(ravi)
		again.Bonus = "3000"
		again.Payment = &PaymentInput{Amount: "10000"}
		_, err = e.svc.CreateSalary(ctx, again)
		assertCode(t, err, errors.ErrCodeInvalidInput)

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Fields["amount"], "5700.00")

		stored, err := e.svc.GetSalary(ctx, first.ID, testPG)
		require.NoError(t, err)
		assertDec(t, "2000", stored.Bonus)
		assertDec(t, "19700", stored.NetSalary)
		assertDec(t, "15000", stored.PaidAmount)
		assertDec(t, "4700", stored.PendingAmount)
		assert.Len(t, stored.Payments, 1)
		assert.Equal(t, []string{
			repository.AuditActionCreated,
			repository.AuditActionPaymentRecorded,
		}, e.audit.Actions())
	})

	t.Run("payment on paid record in window changes nothing", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		req := marchRequest(ravi)
		req.Payment = &PaymentInput{Amount: "19700"}
		first, err := e.svc.CreateSalary(ctx, req)
		require.NoError(t, err)

		again := marchRequest(ravi)
		again.Notes = ptr("second attempt")
		again.Payment = &PaymentInput{Amount: "100"}
		_, err = e.svc.CreateSalary(ctx, again)
		assertCode(t, err, errors.ErrCodePreconditionFailed)

		stored, err := e.svc.GetSalary(ctx, first.ID, testPG)
		require.NoError(t, err)
		assert.Nil(t, stored.Notes)
		assert.Equal(t, first.Version, stored.Version)
		assert.Len(t, stored.Payments, 1)
		assert.Equal(t, []string{repository.AuditActionCreated}, e.audit.Actions())
	})

	t.Run("failed payment write keeps components", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		first, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		e.store.FailOn = "append"
		again := marchRequest(ravi)
		again.Bonus = "3000"
		again.Payment = &PaymentInput{Amount: "5000"}
		again.Receipt = &client.ReceiptUpload{OriginalName: "slip.png", ContentType: "image/png", Size: receiptBytes, Body: strings.NewReader("x")}
		_, err = e.svc.CreateSalary(ctx, again)
		assertCode(t, err, errors.ErrCodeInternal)

		stored, err := e.svc.GetSalary(ctx, first.ID, testPG)
		require.NoError(t, err)
		assertDec(t, "2000", stored.Bonus)
		assertDec(t, "19700", stored.NetSalary)
		assert.Empty(t, stored.Payments)
		assert.Len(t, e.receipts.Removed, 1)
	})

	t.Run("without payment only components change", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		first, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		again := marchRequest(ravi)
		again.Bonus = "1000"
		second, err := e.svc.CreateSalary(ctx, again)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assertDec(t, "18700", second.NetSalary)
		assert.Equal(t, salary.StatusPending, second.Status)
		assert.Equal(t, []string{
			client.EventSalaryCreated,
			client.EventSalaryUpdated,
		}, e.events.List())
	})
}

func TestCreateSalaryPaymentOverNet(t *testing.T) {
	e := newEnv(t, salary.NumericReject)

	req := marchRequest(ravi)
	req.Payment = &PaymentInput{Amount: "20000"}
	_, err := e.svc.CreateSalary(context.Background(), req)
	assertCode(t, err, errors.ErrCodeValidation)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "cannot exceed the net salary", appErr.Fields["amount"])
	assert.NotContains(t, appErr.Fields, "payment.amount")
}

func TestRecordPaymentLifecycle(t *testing.T) {
	e := newEnv(t, salary.NumericReject)
	created, err := e.svc.CreateSalary(context.Background(), marchRequest(ravi))
	require.NoError(t, err)

	v, err := pay(e, created.ID, "10000")
	require.NoError(t, err)
	assert.Equal(t, salary.StatusPartiallyPaid, v.Status)
	assertDec(t, "9700", v.PendingAmount)
	assert.Nil(t, v.EditLockExpiresAt)

	v, err = pay(e, created.ID, "9700")
	require.NoError(t, err)
	assert.Equal(t, salary.StatusPaid, v.Status)
	assertDec(t, "19700", v.PaidAmount)
	assertDec(t, "0", v.PendingAmount)
	require.NotNil(t, v.EditLockExpiresAt)
	require.Len(t, v.Payments, 2)

	_, err = pay(e, created.ID, "100")
	assertCode(t, err, errors.ErrCodePreconditionFailed)

	assert.Equal(t, []string{
		client.EventSalaryCreated,
		client.EventPaymentRecorded,
		client.EventPaymentRecorded,
		client.EventSalaryPaid,
	}, e.events.List())
}

func TestRecordPaymentRejects(t *testing.T) {
	e := newEnv(t, salary.NumericReject)
	ctx := context.Background()
	created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
	require.NoError(t, err)

	_, err = pay(e, created.ID, "20000")
	assertCode(t, err, errors.ErrCodeInvalidInput)

	_, err = pay(e, created.ID, "0")
	assertCode(t, err, errors.ErrCodeValidation)

	_, err = pay(e, created.ID, "-10")
	assertCode(t, err, errors.ErrCodeValidation)

	_, err = e.svc.RecordPayment(ctx, &RecordPaymentRequest{
		SalaryID:     created.ID,
		PGID:         testPG,
		PaymentInput: PaymentInput{Amount: "100", PaymentMethod: "barter"},
	})
	assertCode(t, err, errors.ErrCodeValidation)
	assert.Contains(t, err.Error(), "paidBy")
	assert.Contains(t, err.Error(), "paymentMethod")

	_, err = pay(e, missingID, "100")
	assertCode(t, err, errors.ErrCodeNotFound)

	_, err = e.svc.RecordPayment(ctx, &RecordPaymentRequest{
		SalaryID:     created.ID,
		PGID:         "another-pg",
		PaidBy:       testUser,
		PaymentInput: PaymentInput{Amount: "100"},
	})
	assertCode(t, err, errors.ErrCodeNotFound)

	got, err := e.svc.GetSalary(ctx, created.ID, testPG)
	require.NoError(t, err)
	assert.Empty(t, got.Payments)
}

func TestRecordPaymentReceipt(t *testing.T) {
	ctx := context.Background()

	t.Run("stored with payment", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		v, err := e.svc.RecordPayment(ctx, &RecordPaymentRequest{
			SalaryID:     created.ID,
			PGID:         testPG,
			PaidBy:       testUser,
			PaymentInput: PaymentInput{Amount: "500", PaymentMethod: "bank_transfer", PaymentDate: ptr("2024-03-14")},
			Receipt:      &client.ReceiptUpload{OriginalName: "r.pdf", ContentType: "application/pdf", Size: receiptBytes, Body: strings.NewReader("x")},
		})
		require.NoError(t, err)
		require.Len(t, v.Payments, 1)
		p := v.Payments[0]
		require.NotNil(t, p.ReceiptImage)
		assert.True(t, e.receipts.Stored[p.ReceiptImage.FilePath])
		assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), p.PaymentDate)
	})

	t.Run("unsupported type", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		_, err = e.svc.RecordPayment(ctx, &RecordPaymentRequest{
			SalaryID:     created.ID,
			PGID:         testPG,
			PaidBy:       testUser,
			PaymentInput: PaymentInput{Amount: "500"},
			Receipt:      &client.ReceiptUpload{OriginalName: "r.txt", ContentType: "text/plain", Size: 10, Body: strings.NewReader("x")},
		})
		assertCode(t, err, errors.ErrCodeValidation)
	})

	t.Run("upload failure fails the payment", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)
		e.receipts.PutErr = errors.New(errors.ErrCodeInternal, "minio down")

		_, err = e.svc.RecordPayment(ctx, &RecordPaymentRequest{
			SalaryID:     created.ID,
			PGID:         testPG,
			PaidBy:       testUser,
			PaymentInput: PaymentInput{Amount: "500"},
			Receipt:      &client.ReceiptUpload{OriginalName: "r.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("x")},
		})
		assertCode(t, err, errors.ErrCodeInternal)

		got, err := e.svc.GetSalary(ctx, created.ID, testPG)
		require.NoError(t, err)
		assert.Empty(t, got.Payments)
	})

	t.Run("persist failure removes the receipt", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)
		e.store.FailOn = "append"

		_, err = e.svc.RecordPayment(ctx, &RecordPaymentRequest{
			SalaryID:     created.ID,
			PGID:         testPG,
			PaidBy:       testUser,
			PaymentInput: PaymentInput{Amount: "500"},
			Receipt:      &client.ReceiptUpload{OriginalName: "r.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("x")},
		})
		require.Error(t, err)
		assert.Len(t, e.receipts.Removed, 1)
		assert.Empty(t, e.receipts.Stored)
	})
}

func TestConcurrentPaymentsAreSerialized(t *testing.T) {
	e := newEnv(t, salary.NumericReject)
	created, err := e.svc.CreateSalary(context.Background(), marchRequest(ravi))
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pay(e, created.ID, "1970")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	got, err := e.svc.GetSalary(context.Background(), created.ID, testPG)
	require.NoError(t, err)
	assert.Len(t, got.Payments, n)
	assertDec(t, "19700", got.PaidAmount)
	assert.Equal(t, salary.StatusPaid, got.Status)
}

func TestUpdateSalary(t *testing.T) {
	ctx := context.Background()

	t.Run("overtime is derived again", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		v, err := e.svc.UpdateSalary(ctx, &UpdateSalaryRequest{
			ID:              created.ID,
			PGID:            testPG,
			UpdatedBy:       testUser,
			ComponentsInput: ComponentsInput{Overtime: &OvertimeInput{Hours: "20"}},
			Notes:           ptr("  double shift  "),
		})
		require.NoError(t, err)
		assertDec(t, "6000", v.Overtime.Amount)
		assertDec(t, "22700", v.NetSalary)
		assertDec(t, "22700", v.PendingAmount)
		require.NotNil(t, v.Notes)
		assert.Equal(t, "double shift", *v.Notes)
	})

	t.Run("paid record within window keeps its lock", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		req := marchRequest(ravi)
		req.Payment = &PaymentInput{Amount: "19700"}
		created, err := e.svc.CreateSalary(ctx, req)
		require.NoError(t, err)
		lock := *created.EditLockExpiresAt

		e.clock.Advance(time.Hour)
		v, err := e.svc.UpdateSalary(ctx, &UpdateSalaryRequest{
			ID: created.ID, PGID: testPG, UpdatedBy: testUser,
			ComponentsInput: ComponentsInput{Bonus: "2100"},
		})
		require.NoError(t, err)
		assertDec(t, "19800", v.NetSalary)
		assert.Equal(t, salary.StatusPartiallyPaid, v.Status)
		assertDec(t, "100", v.PendingAmount)
		require.NotNil(t, v.EditLockExpiresAt)
		assert.Equal(t, lock, *v.EditLockExpiresAt)

		v, err = pay(e, created.ID, "100")
		require.NoError(t, err)
		assert.Equal(t, salary.StatusPaid, v.Status)
		assert.Equal(t, lock, *v.EditLockExpiresAt)
	})

	t.Run("paid record after window is locked", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		req := marchRequest(ravi)
		req.Payment = &PaymentInput{Amount: "19700"}
		created, err := e.svc.CreateSalary(ctx, req)
		require.NoError(t, err)

		e.clock.Advance(testWindow + time.Minute)
		_, err = e.svc.UpdateSalary(ctx, &UpdateSalaryRequest{
			ID: created.ID, PGID: testPG, UpdatedBy: testUser,
			ComponentsInput: ComponentsInput{Bonus: "1"},
		})
		assertCode(t, err, errors.ErrCodePreconditionFailed)

		got, err := e.svc.GetSalary(ctx, created.ID, testPG)
		require.NoError(t, err)
		assert.False(t, got.CanEdit)
		assert.EqualValues(t, 0, *got.RemainingEditTime)
	})

	t.Run("cancel", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		v, err := e.svc.UpdateSalary(ctx, &UpdateSalaryRequest{
			ID: created.ID, PGID: testPG, UpdatedBy: testUser, Status: ptr("cancelled"),
		})
		require.NoError(t, err)
		assert.Equal(t, salary.StatusCancelled, v.Status)
		assert.Equal(t, salary.DisplayCancelled, v.CalculatedStatus)
		assert.Equal(t, []string{client.EventSalaryCreated, client.EventSalaryCancelled}, e.events.List())
		assert.Equal(t, []string{repository.AuditActionCreated, repository.AuditActionCancelled}, e.audit.Actions())

		_, err = pay(e, created.ID, "100")
		assertCode(t, err, errors.ErrCodePreconditionFailed)
	})

	t.Run("status cannot be forced", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)

		_, err = e.svc.UpdateSalary(ctx, &UpdateSalaryRequest{
			ID: created.ID, PGID: testPG, UpdatedBy: testUser, Status: ptr("paid"),
		})
		assertCode(t, err, errors.ErrCodeValidation)
	})
}

func TestDeleteSalary(t *testing.T) {
	ctx := context.Background()

	t.Run("soft deletes and removes receipts", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)
		_, err = e.svc.RecordPayment(ctx, &RecordPaymentRequest{
			SalaryID: created.ID, PGID: testPG, PaidBy: testUser,
			PaymentInput: PaymentInput{Amount: "500"},
			Receipt:      &client.ReceiptUpload{OriginalName: "r.png", ContentType: "image/png", Size: 10, Body: strings.NewReader("x")},
		})
		require.NoError(t, err)

		require.NoError(t, e.svc.DeleteSalary(ctx, created.ID, testPG, testUser))

		_, err = e.svc.GetSalary(ctx, created.ID, testPG)
		assertCode(t, err, errors.ErrCodeNotFound)
		assert.Empty(t, e.receipts.Stored)
		assert.Contains(t, e.events.List(), client.EventSalaryDeleted)

		again, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
		require.NoError(t, err)
		assert.NotEqual(t, created.ID, again.ID)
	})

	t.Run("locked record", func(t *testing.T) {
		e := newEnv(t, salary.NumericReject)
		req := marchRequest(ravi)
		req.Payment = &PaymentInput{Amount: "19700"}
		created, err := e.svc.CreateSalary(ctx, req)
		require.NoError(t, err)

		e.clock.Advance(5 * time.Hour)
		err = e.svc.DeleteSalary(ctx, created.ID, testPG, testUser)
		assertCode(t, err, errors.ErrCodePreconditionFailed)
	})
}

func ptr[T any](v T) *T { return &v }

func TestSalaryHistory(t *testing.T) {
	e := newEnv(t, salary.NumericReject)
	ctx := context.Background()

	created, err := e.svc.CreateSalary(ctx, marchRequest(ravi))
	require.NoError(t, err)
	_, err = pay(e, created.ID, "19700")
	require.NoError(t, err)

	history, err := e.svc.SalaryHistory(ctx, created.ID, testPG)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, repository.AuditActionPaymentRecorded, history[1].Action)
	require.NotNil(t, history[1].StatusAfter)
	assert.Equal(t, string(salary.StatusPaid), *history[1].StatusAfter)

	_, err = e.svc.SalaryHistory(ctx, created.ID, "another-pg")
	assertCode(t, err, errors.ErrCodeNotFound)

	_, err = e.svc.SalaryHistory(ctx, "nope", testPG)
	assertCode(t, err, errors.ErrCodeInvalidInput)
}

package trading

import (
	"context"
	"testing"
	"time"

	"github.com/ksred/papertrade-api/internal/testutil"
	"github.com/ksred/papertrade-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRecoverer_Sweep(t *testing.T) {
	db := testutil.NewDB(t)
	user := testutil.CreateUser(t, db, "trader@example.com", 100000)
	ctx := context.Background()

	pending := func(id string) *types.Order {
		o := &types.Order{
			OrderID: id, UserID: user.ID, Symbol: "INFY", Type: types.OrderTypeBuy,
			Quantity: 1, Price: 100, Total: 100, Status: types.OrderStatusPending,
		}
		require.NoError(t, db.Create(o).Error)
		return o
	}

	pending("applied")
	pending("lost")
	require.NoError(t, db.Create(&types.Trade{
		OrderID: "applied", UserID: user.ID, Symbol: "INFY", Type: types.OrderTypeBuy,
		Quantity: 1, Price: 100, Total: 100,
	}).Error)
	require.NoError(t, db.Create(&types.Order{
		OrderID: "done", UserID: user.ID, Symbol: "INFY", Type: types.OrderTypeBuy,
		Quantity: 1, Price: 100, Total: 100, Status: types.OrderStatusExecuted,
	}).Error)

	r := NewRecoverer(NewDatabase(db), time.Minute, 5*time.Minute)

	report, err := r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecoveryReport{}, report, "fresh orders are left alone")

	r.now = func() time.Time { return time.Now().Add(time.Hour) }

	report, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecoveryReport{Scanned: 2, Executed: 1, Failed: 1}, report)

	d := NewDatabase(db)
	applied, err := d.GetOrder(ctx, "applied")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusExecuted, applied.Status)
	assert.Empty(t, applied.Reason)

	lost, err := d.GetOrder(ctx, "lost")
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFailed, lost.Status)
	assert.Equal(t, reasonInterrupted, lost.Reason)

	report, err = r.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecoveryReport{}, report)
}

func TestRecoverer_ResolvesInterruptedExecution(t *testing.T) {
	svc, db := newTestService(t)
	user := testutil.CreateUser(t, db, "trader@example.com", 100000)

	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_trades", func(tx *gorm.DB) {
		if tx.Statement.Table == "trades" {
			_ = tx.AddError(assert.AnError)
		}
	}))
	_, err := svc.Execute(context.Background(), user.ID, buy("INFY", 1, 1500))
	require.ErrorIs(t, err, ErrExecutionFailed)

	r := NewRecoverer(svc.GetDB(), time.Minute, time.Minute)
	r.now = func() time.Time { return time.Now().Add(time.Hour) }

	report, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 100000.0, loadBalance(t, db, user.ID))
}

func TestRecoverer_StartStopsOnCancel(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewRecoverer(NewDatabase(db), 10*time.Millisecond, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recoverer did not stop")
	}
}

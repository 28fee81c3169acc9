package service

import (
    "context"
    "errors"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/raffle-reservation/internal/model"
    "github.com/iliyamo/raffle-reservation/internal/repository"
)

func q(sql string) string { return regexp.QuoteMeta(sql) }

var ticketCols = []string{"raffle_id", "number", "status", "buyer_id", "purchase_id", "hold_expires_at"}

// TestReserveMySQLShortHoldRollsBack drives Reserve against the MySQL store
// with a competing writer that took one number between lookup and hold.
func TestReserveMySQLShortHoldRollsBack(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
    expires := now.Add(30 * time.Minute)
    linkCalled := false
    links := linkFunc(func(context.Context, model.Tenant, model.Purchase, model.Buyer) (string, error) {
        linkCalled = true
        return "", errors.New("unexpected")
    })
    svc := New(repository.NewStore(db), links, &mockNotifier{}, Options{Now: func() time.Time { return now }})

    mock.ExpectBegin()
    mock.ExpectQuery(q(`FROM raffles WHERE id = ? FOR UPDATE`)).WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "slug", "name", "description", "prize_value",
            "digit_width", "ticket_count", "unit_price", "status", "closes_at", "winning_number", "created_at"}).
            AddRow(1, 1, "moto-1a2b3c", "Moto", "", "8000000", 2, 100, "10000", model.RaffleActive, nil, nil, now))
    mock.ExpectQuery(q(`FROM tenants WHERE id = ?`)).WithArgs(uint64(1)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "slug", "name", "whatsapp", "email", "telegram_chat_id",
            "is_active", "wompi_public_key", "wompi_private_key", "wompi_integrity_secret", "created_at"}).
            AddRow(1, "don-pepe", "Don Pepe", "+57300", "pepe@example.com", 0, true, "pub_1", "prv_1", "", now))
    mock.ExpectQuery(q(`SELECT number FROM tickets WHERE raffle_id = ? AND status = 'HELD' AND hold_expires_at <= ?`)).
        WillReturnRows(sqlmock.NewRows([]string{"number"}))
    mock.ExpectQuery(q(`FROM tickets`)).WithArgs(uint64(1), "05", "12").
        WillReturnRows(sqlmock.NewRows(ticketCols).
            AddRow(1, "05", model.TicketAvailable, nil, nil, nil).
            AddRow(1, "12", model.TicketAvailable, nil, nil, nil))
    mock.ExpectExec(q(`INSERT INTO buyers`)).WillReturnResult(sqlmock.NewResult(7, 1))
    mock.ExpectExec(q(`INSERT INTO purchases`)).WillReturnResult(sqlmock.NewResult(9, 1))
    mock.ExpectExec(q(`INSERT INTO purchase_tickets`)).WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectQuery(q(`FROM purchases WHERE id = ?`)).WithArgs(uint64(9)).
        WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "raffle_id", "buyer_id", "total", "status",
            "payment_ref", "paid_at", "created_at"}).
            AddRow(9, 1, 1, 7, "20000", model.PurchasePending, nil, nil, now))
    mock.ExpectQuery(q(`SELECT number FROM purchase_tickets WHERE purchase_id = ?`)).
        WillReturnRows(sqlmock.NewRows([]string{"number"}).AddRow("05").AddRow("12"))
    mock.ExpectExec(q(`UPDATE purchases SET payment_ref = ?`)).WithArgs("purchase_9", uint64(9)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    // "12" was taken by purchase 4 after the lookup: only one row moves.
    mock.ExpectExec(q(`UPDATE tickets SET status = 'HELD'`)).
        WithArgs(uint64(7), uint64(9), expires, uint64(1), "05", "12").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectQuery(q(`FROM tickets`)).WithArgs(uint64(1), "05", "12").
        WillReturnRows(sqlmock.NewRows(ticketCols).
            AddRow(1, "05", model.TicketHeld, 7, 9, expires).
            AddRow(1, "12", model.TicketHeld, 3, 4, expires))
    mock.ExpectRollback()

    _, err = svc.Reserve(context.Background(), ReserveRequest{
        RaffleID: 1, Numbers: "05,12",
        Name: "Ana", NationalID: "1001", Email: "ana@example.com", Phone: "3001112233",
    })

    var ue *UnavailableError
    require.ErrorAs(t, err, &ue)
    assert.Equal(t, []string{"12"}, ue.Numbers)
    assert.ErrorIs(t, err, ErrNumbersUnavailable)
    assert.False(t, linkCalled)
    require.NoError(t, mock.ExpectationsWereMet())
}

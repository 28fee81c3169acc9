// Package metrics exposes the Prometheus collectors for reservations,
// settlements and notifications.  Collectors register on the default
// registry served at /metrics.
package metrics

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    reservations = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "raffle_reservations_total",
            Help: "Reservation attempts by result code",
        },
        []string{"result"},
    )

    settlements = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "raffle_settlements_total",
            Help: "Payment events by applied outcome",
        },
        []string{"outcome"},
    )

    settlementConflicts = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "raffle_settlement_conflicts_total",
            Help: "Approved purchases whose tickets were taken by another purchase",
        },
    )

    holdsExpired = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "raffle_holds_expired_total",
            Help: "Held tickets reclaimed by the expiry sweep",
        },
    )

    notifications = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "raffle_notifications_total",
            Help: "Notification dispatches by kind and status",
        },
        []string{"kind", "status"},
    )

    paymentLinkDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "raffle_payment_link_duration_seconds",
            Help:    "Time spent requesting payment links",
            Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
        },
        []string{"status"},
    )
)

func TrackReservation(result string) { reservations.WithLabelValues(result).Inc() }

func TrackSettlement(outcome string) { settlements.WithLabelValues(outcome).Inc() }

func TrackSettlementConflict() { settlementConflicts.Inc() }

func TrackHoldsExpired(n int) {
    if n > 0 {
        holdsExpired.Add(float64(n))
    }
}

func TrackNotification(kind string, err error) {
    status := "ok"
    if err != nil {
        status = "error"
    }
    notifications.WithLabelValues(kind, status).Inc()
}

func TrackPaymentLink(d time.Duration, err error) {
    status := "ok"
    if err != nil {
        status = "error"
    }
    paymentLinkDuration.WithLabelValues(status).Observe(d.Seconds())
}

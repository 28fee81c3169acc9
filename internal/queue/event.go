// Package queue carries notifications over RabbitMQ: the publisher side runs
// in the request path, the consumer delivers them on every channel.
package queue

import "github.com/iliyamo/raffle-reservation/internal/notify"

// Notification is one message addressed to one recipient.  It carries the
// rendered facts so the consumer never reads the primary database.
type Notification struct {
    Contact     notify.Contact `json:"contact"`
    Summary     notify.Summary `json:"summary"`
    PublishedAt string         `json:"published_at"`
}

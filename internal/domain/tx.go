// Package domain holds the lifecycle rules shared by the booking use cases.
package domain

import "context"

// Transactor runs fn inside a single datastore transaction carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

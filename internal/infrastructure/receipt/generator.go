// Package receipt renders fee receipts and stores them in object storage.
// Only the storage pointer is written back to the payment row.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	appfee "github.com/schoolfees/backend/internal/application/fee"
	"github.com/schoolfees/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const contentType = "text/html; charset=utf-8"

// ObjectStore is the subset of object storage the generator needs
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, time.Time, error)
}

// Options configure a Generator
type Options struct {
	// Prefix is the key prefix, e.g. "receipts"
	Prefix string
	// School is printed in the receipt header
	School   string
	Currency string
	// LinkTTL is the lifetime of the returned download link
	LinkTTL time.Duration
	Now     func() time.Time
	Logger  *zap.Logger
}

// Generator implements appfee.ReceiptGenerator
type Generator struct {
	store  ObjectStore
	engine *TemplateEngine
	opts   Options
}

// NewGenerator creates a Generator
func NewGenerator(store ObjectStore, opts Options) (*Generator, error) {
	if store == nil {
		return nil, errors.New("receipt object store is required")
	}
	engine, err := NewTemplateEngine()
	if err != nil {
		return nil, err
	}
	if opts.Prefix == "" {
		opts.Prefix = "receipts"
	}
	if opts.School == "" {
		opts.School = "School Accounts"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Generator{store: store, engine: engine, opts: opts}, nil
}

// Key returns the storage key for a receipt. Regenerating a receipt for the
// same payment reference overwrites the same object.
func (g *Generator) Key(req appfee.ReceiptRequest) string {
	return path.Join(
		strings.Trim(g.opts.Prefix, "/"),
		req.OrgID.String(),
		req.PaidDate.Format("2006/01"),
		req.Reference+".html",
	)
}

// Generate renders, uploads and presigns the receipt
func (g *Generator) Generate(ctx context.Context, req appfee.ReceiptRequest) (*appfee.ReceiptArtifact, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receipt", "Generate",
		telemetry.WithAttribute("fee.id", req.FeeID.String()),
		telemetry.WithAttribute("payment.reference", req.Reference),
	)
	defer span.End()

	if strings.TrimSpace(req.Reference) == "" {
		return nil, errors.New("receipt needs a payment reference")
	}

	body, err := g.engine.render(document{
		School:      g.opts.School,
		Reference:   req.Reference,
		IssuedAt:    g.opts.Now(),
		StudentID:   req.StudentID.String(),
		StudentName: req.StudentName,
		FeeID:       req.FeeID.String(),
		Description: req.Description,
		Currency:    g.opts.Currency,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
		PaidDate:    req.PaidDate,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	key := g.Key(req)
	if err := g.store.Upload(ctx, key, body, contentType); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("store receipt %s: %w", req.Reference, err)
	}
	url, _, err := g.store.GenerateDownloadURL(ctx, key, g.opts.LinkTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("link receipt %s: %w", req.Reference, err)
	}

	g.opts.Logger.Debug("receipt generated",
		zap.String("reference", req.Reference),
		zap.String("key", key),
		zap.Int("bytes", len(body)),
	)
	return &appfee.ReceiptArtifact{URL: url, StoragePath: key}, nil
}

var _ appfee.ReceiptGenerator = (*Generator)(nil)

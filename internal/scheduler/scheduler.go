package scheduler

import (
	"fmt"
	"time"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/ws"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// LowStockSource lists the products at or below their minimum stock.
type LowStockSource interface {
	GetLowStock() ([]model.Product, error)
}

type Publisher interface {
	Publish(event ws.Event)
}

type digestItem struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Stock    int    `json:"stock"`
	MinStock int    `json:"minStock"`
}

type Scheduler struct {
	cron   *cron.Cron
	source LowStockSource
	events Publisher
	log    *zap.Logger
	now    func() time.Time
}

func New(loc *time.Location, source LowStockSource, events Publisher) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		source: source,
		events: events,
		log:    zap.L().Named("scheduler"),
		now:    time.Now,
	}
}

// AddLowStockDigest registers the digest job on a cron expression such as "0 8 * * *" or "@daily".
func (s *Scheduler) AddLowStockDigest(expr string) error {
	if _, err := s.cron.AddFunc(expr, s.LowStockDigest); err != nil {
		return fmt.Errorf("invalid low stock schedule %q: %w", expr, err)
	}
	return nil
}

// LowStockDigest publishes one event summarising every low stock product. Nothing is sent when the list is empty.
func (s *Scheduler) LowStockDigest() {
	products, err := s.source.GetLowStock()
	if err != nil {
		s.log.Error("low stock digest failed", zap.Error(err))
		return
	}
	if len(products) == 0 {
		s.log.Debug("low stock digest: nothing to report")
		return
	}

	items := make([]digestItem, 0, len(products))
	for _, p := range products {
		items = append(items, digestItem{ID: p.ID, Name: p.Name, Stock: p.Stock, MinStock: p.MinStock})
	}

	s.events.Publish(ws.Event{
		Type:      ws.EventLowStockDigest,
		Data:      items,
		Message:   fmt.Sprintf("%d products are at or below minimum stock", len(items)),
		User:      "system",
		Timestamp: s.now(),
	})
	s.log.Info("low stock digest sent", zap.Int("products", len(items)))
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

package service

import (
	"context"
	"io"

	"hlg-fitness/internal/model"
	"hlg-fitness/internal/repository"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type SalesSummary struct {
	TotalSales       int64           `json:"totalSales"`
	TotalRevenue     decimal.Decimal `json:"totalRevenue"`
	CompletedSales   int64           `json:"completedSales"`
	CompletedRevenue decimal.Decimal `json:"completedRevenue"`
	PendingSales     int64           `json:"pendingSales"`
	CancelledSales   int64           `json:"cancelledSales"`
}

type SaleRow struct {
	ID       uint   `json:"id" csv:"id"`
	Date     string `json:"date" csv:"date"`
	Customer string `json:"customer" csv:"customer"`
	Items    int    `json:"items" csv:"items"`
	Total    string `json:"total" csv:"total"`
	Status   string `json:"status" csv:"status"`
}

type SalesReport struct {
	StartDate string       `json:"startDate"`
	EndDate   string       `json:"endDate"`
	Summary   SalesSummary `json:"summary"`
	Sales     []SaleRow    `json:"sales"`
}

type InventorySummary struct {
	TotalProducts   int             `json:"totalProducts"`
	TotalUnits      int             `json:"totalUnits"`
	LowStockCount   int             `json:"lowStockCount"`
	OutOfStockCount int             `json:"outOfStockCount"`
	StockValue      decimal.Decimal `json:"stockValue"`
}

type InventoryRow struct {
	ID       uint   `json:"id" csv:"id"`
	Name     string `json:"name" csv:"name"`
	Category string `json:"category" csv:"category"`
	Size     string `json:"size" csv:"size"`
	Color    string `json:"color" csv:"color"`
	Stock    int    `json:"stock" csv:"stock"`
	MinStock int    `json:"minStock" csv:"min_stock"`
	Price    string `json:"price" csv:"unit_price"`
	Value    string `json:"value" csv:"stock_value"`
	Level    string `json:"level" csv:"level"` // out | low | normal
}

type InventoryReport struct {
	Summary  InventorySummary `json:"summary"`
	Products []InventoryRow   `json:"products"`
}

type ReportService interface {
	SalesReport(ctx context.Context, start, end string) (*SalesReport, error)
	InventoryReport() (*InventoryReport, error)
	WriteSalesCSV(ctx context.Context, w io.Writer, start, end string) error
	WriteInventoryCSV(w io.Writer) error
}

type reportService struct {
	saleRepo    repository.SaleRepository
	productRepo repository.ProductRepository
}

func NewReportService(saleRepo repository.SaleRepository, productRepo repository.ProductRepository) ReportService {
	return &reportService{saleRepo: saleRepo, productRepo: productRepo}
}

func (s *reportService) SalesReport(ctx context.Context, start, end string) (*SalesReport, error) {
	from, to, err := ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	statusTotals, err := s.saleRepo.StatusTotalsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sales, err := s.saleRepo.FindByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	report := &SalesReport{
		StartDate: from.Format("2006-01-02"),
		EndDate:   to.AddDate(0, 0, -1).Format("2006-01-02"),
		Summary:   summarize(statusTotals),
		Sales:     make([]SaleRow, 0, len(sales)),
	}
	for _, sale := range sales {
		report.Sales = append(report.Sales, toSaleRow(sale))
	}
	return report, nil
}

func summarize(totals []repository.StatusTotals) SalesSummary {
	summary := SalesSummary{TotalRevenue: decimal.Zero, CompletedRevenue: decimal.Zero}
	for _, t := range totals {
		summary.TotalSales += t.Count
		summary.TotalRevenue = summary.TotalRevenue.Add(t.Total)
		switch t.Status {
		case model.SaleStatusCompleted:
			summary.CompletedSales = t.Count
			summary.CompletedRevenue = t.Total
		case model.SaleStatusPending:
			summary.PendingSales = t.Count
		case model.SaleStatusCancelled:
			summary.CancelledSales = t.Count
		}
	}
	return summary
}

func toSaleRow(sale model.Sale) SaleRow {
	row := SaleRow{
		ID:     sale.ID,
		Date:   sale.Date.Format("2006-01-02 15:04"),
		Items:  len(sale.Items),
		Total:  sale.Total.StringFixed(2),
		Status: string(sale.Status),
	}
	if sale.Customer != nil {
		row.Customer = sale.Customer.Name
	}
	return row
}

func (s *reportService) InventoryReport() (*InventoryReport, error) {
	products, err := s.productRepo.FindAll(repository.ProductFilter{Sort: "name"})
	if err != nil {
		return nil, err
	}

	report := &InventoryReport{
		Summary:  InventorySummary{TotalProducts: len(products), StockValue: decimal.Zero},
		Products: make([]InventoryRow, 0, len(products)),
	}
	for i := range products {
		p := &products[i]
		value := p.StockValue()
		report.Summary.TotalUnits += p.Stock
		report.Summary.StockValue = report.Summary.StockValue.Add(value)

		level := "normal"
		switch {
		case p.Stock == 0:
			level = "out"
			report.Summary.OutOfStockCount++
			report.Summary.LowStockCount++
		case p.IsLowStock():
			level = "low"
			report.Summary.LowStockCount++
		}

		report.Products = append(report.Products, InventoryRow{
			ID:       p.ID,
			Name:     p.Name,
			Category: string(p.Category),
			Size:     p.Size,
			Color:    p.Color,
			Stock:    p.Stock,
			MinStock: p.MinStock,
			Price:    p.Price.StringFixed(2),
			Value:    value.StringFixed(2),
			Level:    level,
		})
	}
	return report, nil
}

func (s *reportService) WriteSalesCSV(ctx context.Context, w io.Writer, start, end string) error {
	report, err := s.SalesReport(ctx, start, end)
	if err != nil {
		return err
	}
	return gocsv.Marshal(&report.Sales, w)
}

func (s *reportService) WriteInventoryCSV(w io.Writer) error {
	report, err := s.InventoryReport()
	if err != nil {
		return err
	}
	return gocsv.Marshal(&report.Products, w)
}

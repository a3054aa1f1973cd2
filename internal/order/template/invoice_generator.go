package template

import (
	"bytes"
	"fmt"

	"github.com/signintech/gopdf"

	"store-backend/internal/models"
)

type InvoicePDFGenerator struct {
	FontPath string
}

func NewInvoicePDFGenerator() *InvoicePDFGenerator {
	return &InvoicePDFGenerator{FontPath: "./fonts/DejaVuSans.ttf"}
}

// Generate renders an invoice PDF for an order with its items and bill.
func (g *InvoicePDFGenerator) Generate(detail models.OrderDetail) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := pdf.AddTTFFont("dejavu", g.FontPath); err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	if err := pdf.SetFont("dejavu", "", 14); err != nil {
		return nil, fmt.Errorf("failed to set font: %w", err)
	}

	addHeader(pdf, detail.Order)
	pdf.SetY(90)
	addItems(pdf, detail.Items)
	pdf.SetY(pdf.GetY() + 20)
	addTotals(pdf, detail)
	pdf.SetY(footerY)
	addFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

const footerY = 780

func addHeader(pdf *gopdf.GoPdf, order models.Order) {
	pdf.SetX(40)
	pdf.SetY(30)
	pdf.Cell(nil, "INVOICE")
	pdf.Br(20)
	pdf.SetX(40)
	pdf.Cell(nil, "Order: "+order.OrderID)
	pdf.Br(20)
	pdf.SetX(40)
	pdf.Cell(nil, "Date: "+order.OrderDate.Format("2006-01-02 15:04"))
}

func addItems(pdf *gopdf.GoPdf, items []models.OrderItem) {
	pdf.SetX(40)
	pdf.Cell(nil, "Items")
	pdf.Br(20)
	for _, item := range items {
		pdf.SetX(40)
		pdf.Cell(nil, fmt.Sprintf("Product %d  x%d  @ %.2f  = %.2f",
			item.ProductID, item.Quantity, item.Price, item.Subtotal))
		pdf.Br(20)
	}
}

func addTotals(pdf *gopdf.GoPdf, detail models.OrderDetail) {
	rows := []struct {
		Label string
		Value string
	}{
		{"Total", fmt.Sprintf("%.2f", detail.Order.TotalAmount)},
		{"Discount", fmt.Sprintf("%.2f", detail.Order.DiscountAmount)},
		{"Amount due", fmt.Sprintf("%.2f", detail.Order.AmountOwed())},
		{"Status", detail.Order.PayStatus},
	}
	if detail.Bill != nil {
		rows = append(rows, struct {
			Label string
			Value string
		}{"Bill", detail.Bill.BillID})
	}

	for _, row := range rows {
		pdf.SetX(40)
		pdf.Cell(nil, row.Label+": "+row.Value)
		pdf.Br(20)
	}
}

func addFooter(pdf *gopdf.GoPdf) {
	pdf.SetX(50)
	pdf.Cell(nil, "Thank you for shopping with us.")
}

package bankoffice

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const statementTimeLayout = "2006-01-02 15:04"

// AccountSummary totals money in and out of the account and counts its
// overdraft events. An unknown account is ErrNotFound, never a zero summary.
func (s *CoreService) AccountSummary(ctx context.Context, accountNumber string) (*AccountSummary, error) {
	return s.repo.AccountSummary(ctx, accountNumber)
}

// Statement writes a PDF statement of the account's transactions in the
// requested window. Nothing is written to w if rendering fails.
func (s *CoreService) Statement(ctx context.Context, w io.Writer, req StatementReq) error {
	acct, err := s.repo.GetAccount(ctx, req.AccountNumber)
	if err != nil {
		return err
	}
	txns, err := s.ListTransactions(ctx, TransactionFilter{
		AccountNumber: req.AccountNumber,
		From:          req.From,
		To:            req.To,
	})
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err = renderStatement(buf, acct, txns, req, s.clock); err != nil {
		return fmt.Errorf("render statement for `%s`: %w", acct.Number, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

var statementCols = []struct {
	title string
	width float64
	align string
}{
	{"Date (UTC)", 32, "L"},
	{"Type", 30, "L"},
	{"Amount", 28, "R"},
	{"Balance", 30, "R"},
	{"Reference", 30, "L"},
	{"Note", 40, "L"},
}

func renderStatement(w io.Writer, acct *Account, txns []Transaction, req StatementReq, clock Clock) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Statement "+acct.Number, false)
	pdf.SetCreator("bankoffice", false)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Account statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	period := "all activity"
	if req.From != nil || req.To != nil {
		from, to := "beginning", "now"
		if req.From != nil {
			from = req.From.UTC().Format(statementTimeLayout)
		}
		if req.To != nil {
			to = req.To.UTC().Format(statementTimeLayout)
		}
		period = from + " to " + to
	}
	for _, line := range []string{
		"Account: " + acct.Number + " (" + acct.Type + ", " + acct.Currency + ")",
		"Status: " + string(acct.Status),
		"Period: " + period,
		"Generated: " + clock.NowUTC().Format(statementTimeLayout),
		"Current balance: " + acct.Balance.StringFixed(2),
	} {
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range statementCols {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	totalIn, totalOut := decimal.Zero, decimal.Zero
	for _, t := range txns {
		if t.Type.Credit() {
			totalIn = totalIn.Add(t.Amount)
		} else {
			totalOut = totalOut.Add(t.Amount)
		}
		ref, note := "", ""
		if t.ReferenceCode != nil {
			ref = *t.ReferenceCode
		}
		if t.Note != nil {
			note = truncate(*t.Note, 24)
		}
		cells := []string{
			t.Timestamp.UTC().Format(statementTimeLayout),
			string(t.Type),
			t.Type.Signed(t.Amount).StringFixed(2),
			t.BalanceAfter.StringFixed(2),
			ref,
			note,
		}
		for i, c := range statementCols {
			pdf.CellFormat(c.width, 6, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(txns) == 0 {
		pdf.CellFormat(0, 6, "No transactions in this period.", "1", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, "Total in: "+totalIn.StringFixed(2))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Total out: "+totalOut.StringFixed(2))
	pdf.Ln(6)

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

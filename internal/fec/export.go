package fec

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gestio-erp/gestio-erp/internal/ledger/accounts"
	"github.com/gestio-erp/gestio-erp/internal/ledger/entries"
	"github.com/gestio-erp/gestio-erp/internal/ledger/shared"
)

// Separator and column layout are bit-exact contract points with the tax
// authority's filing tools: 18 pipe-delimited columns per row, dates as
// YYYYMMDD, amounts with a dot and exactly two decimals, unused columns
// emitted empty.
const (
	Separator  = "|"
	dateLayout = "20060102"
)

// Header lists the 18 column names in contractual order.
var Header = []string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
	"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
	"PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
}

// EntrySource supplies entries with lines over a date range in
// (date, entry number) order.
type EntrySource interface {
	ListRange(ctx context.Context, from, to time.Time) ([]entries.JournalEntry, error)
}

// AccountSource supplies the chart of accounts for code/label resolution.
type AccountSource interface {
	List(ctx context.Context) ([]accounts.Account, error)
}

// Exporter serialises the full entry set for a period into the regulatory
// audit file. The consumer owns file naming and delivery.
type Exporter struct {
	entries  EntrySource
	accounts AccountSource
}

func NewExporter(entrySource EntrySource, accountSource AccountSource) *Exporter {
	return &Exporter{entries: entrySource, accounts: accountSource}
}

// WriteRange streams header plus one row per journal line to w.
func (e *Exporter) WriteRange(ctx context.Context, w io.Writer, from, to time.Time) error {
	accountList, err := e.accounts.List(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]accounts.Account, len(accountList))
	for _, a := range accountList {
		byID[a.ID] = a
	}
	entryList, err := e.entries.ListRange(ctx, from, to)
	if err != nil {
		return err
	}
	buf := bufio.NewWriter(w)
	if _, err := buf.WriteString(strings.Join(Header, Separator) + "\r\n"); err != nil {
		return err
	}
	for _, entry := range entryList {
		for _, line := range entry.Lines {
			account, ok := byID[line.AccountID]
			if !ok {
				return shared.ErrAccountNotFound
			}
			if _, err := buf.WriteString(formatRow(entry, line, account) + "\r\n"); err != nil {
				return err
			}
		}
	}
	return buf.Flush()
}

func formatRow(entry entries.JournalEntry, line entries.JournalLine, account accounts.Account) string {
	label := line.Description
	if label == "" {
		label = entry.Description
	}
	fields := []string{
		entry.Journal,
		entries.JournalLabel(entry.Journal),
		strconv.FormatInt(entry.Number, 10),
		entry.Date.Format(dateLayout),
		account.Code,
		account.Name,
		"", // CompAuxNum: no auxiliary ledger
		"", // CompAuxLib
		pieceRef(entry),
		entry.Date.Format(dateLayout),
		sanitize(label),
		line.Debit.StringFixed(2),
		line.Credit.StringFixed(2),
		"", // EcritureLet: no reconciliation lettering
		"", // DateLet
		entry.CreatedAt.Format(dateLayout),
		"", // Montantdevise: single-currency ledger
		"", // Idevise
	}
	return strings.Join(fields, Separator)
}

func pieceRef(entry entries.JournalEntry) string {
	if entry.Reference == nil {
		return strconv.FormatInt(entry.Number, 10)
	}
	return entry.Reference.Type + "-" + entry.Reference.ID.String()
}

// sanitize strips separator and line-break bytes from free text so a label
// can never shift the column layout.
func sanitize(s string) string {
	replacer := strings.NewReplacer(Separator, " ", "\n", " ", "\r", " ", "\t", " ")
	return replacer.Replace(s)
}

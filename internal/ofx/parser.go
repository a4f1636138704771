// Package ofx parses OFX/QFX bank and credit-card statements into
// transactions, tolerating the SGML formatting quirks real banks emit.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/ledgerwise/ledgerwise/internal/model"
)

// Parser reads OFX/QFX statement files.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates an OFX parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// SGML-style files sometimes drop the closing bracket on a bare tag line.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocess fixes formatting issues that trip up strict OFX parsing.
func preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	content = tagFixRegex.ReplaceAllString(content, "$1>")
	return content
}

// Parse reads an OFX/QFX statement and returns its transactions. Bank and
// credit-card statements are both handled; a statement that fails to convert
// is logged and skipped rather than failing the whole file.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("parsing statement: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		txns, err := convertAll(stmt.BankTranList.Transactions)
		if err != nil {
			p.logger.Warn("skipping bank statement",
				"account", stmt.BankAcctFrom.AcctID,
				"error", err)
			continue
		}
		transactions = append(transactions, txns...)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		txns, err := convertAll(stmt.BankTranList.Transactions)
		if err != nil {
			p.logger.Warn("skipping credit card statement",
				"account", stmt.CCAcctFrom.AcctID,
				"error", err)
			continue
		}
		transactions = append(transactions, txns...)
	}

	p.logger.Info("parsed statement",
		"transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)
	return transactions, nil
}

func convertAll(ofxTxns []ofxgo.Transaction) ([]model.Transaction, error) {
	txns := make([]model.Transaction, 0, len(ofxTxns))
	for _, ofxTx := range ofxTxns {
		tx, err := convert(ofxTx)
		if err != nil {
			return nil, err
		}
		txns = append(txns, tx)
	}
	return txns, nil
}

func convert(ofxTx ofxgo.Transaction) (model.Transaction, error) {
	// TrnAmt is exact decimal; two fractional digits round half away from zero
	amount, err := model.ParseMoney(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %s: %w", ofxTx.FiTID, err)
	}
	return model.Transaction{
		Date:   ofxTx.DtPosted.Time,
		Detail: detail(ofxTx),
		Amount: amount,
	}, nil
}

// detail extracts the cleanest merchant description the statement offers.
func detail(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGeneric(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Strip a leading "MM/DD " date stamp
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

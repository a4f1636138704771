package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerwise/ledgerwise/internal/model"
)

func fakeTx(name string) ofxgo.Transaction {
	return ofxgo.Transaction{Name: ofxgo.String(name)}
}

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>POS PURCHASE Whole Foods Market
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>Info
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-42.99
<FITID>CC2024011001
<NAME>PURCHASE
<MEMO>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-42.99
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseBankStatement(t *testing.T) {
	p := NewParser(nil)

	txns, err := p.Parse(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "STARBUCKS STORE #1234", txns[0].Detail)
	assert.Equal(t, model.Money(-2550), txns[0].Amount)
	assert.Equal(t, time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC), txns[0].Date.UTC())

	// The POS prefix is stripped
	assert.Equal(t, "Whole Foods Market", txns[1].Detail)
	assert.Equal(t, model.Money(-12500), txns[1].Amount)

	for _, tx := range txns {
		assert.True(t, tx.Orphaned())
	}
}

func TestParseCreditCardStatement(t *testing.T) {
	p := NewParser(nil)

	txns, err := p.Parse(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, txns, 1)

	// Generic NAME falls back to MEMO
	assert.Equal(t, "NETFLIX.COM", txns[0].Detail)
	assert.Equal(t, model.Money(-4299), txns[0].Amount)
}

func TestParseLeadingWhitespace(t *testing.T) {
	p := NewParser(nil)

	txns, err := p.Parse(context.Background(), strings.NewReader("\n\n  "+sampleBankOFX))
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestParseGarbage(t *testing.T) {
	p := NewParser(nil)

	_, err := p.Parse(context.Background(), strings.NewReader("this is not an OFX file"))
	require.Error(t, err)
}

func TestDetailCleanup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "LOCAL COFFEE", "LOCAL COFFEE"},
		{"pos prefix", "POS PURCHASE TARGET", "TARGET"},
		{"check card prefix", "CHECK CARD SHELL OIL", "SHELL OIL"},
		{"leading date stamp", "01/15 TRADER JOES", "TRADER JOES"},
		{"whitespace", "  COSTCO  ", "COSTCO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detail(fakeTx(tt.in))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreprocessFixesBareTags(t *testing.T) {
	in := "<OFX>\n<TRNUID\n<SEVERITY>info</SEVERITY>"
	out := preprocess(in)
	assert.Contains(t, out, "<TRNUID>")
	assert.Contains(t, out, "<SEVERITY>INFO</SEVERITY>")
}

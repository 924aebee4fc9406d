package ledger

import "fmt"

// docPrefixes maps document types to their display-number prefixes.
var docPrefixes = map[DocType]string{
	DocTypeJournal:    "JRN",
	DocTypeReceipt:    "RCT",
	DocTypePayment:    "PAY",
	DocTypeCommission: "COM",
	DocTypeTransfer:   "TRF",
	DocTypeOther:      "MSC",
}

// nextDocumentNumber mints the next display number for a document type. The
// counter row is bumped inside the caller's transaction, so two concurrent
// postings serialize on the row and never see the same number.
func nextDocumentNumber(q Queryer, docType DocType) (string, error) {
	prefix, ok := docPrefixes[docType]
	if !ok {
		prefix = docPrefixes[DocTypeOther]
	}
	_, err := q.Exec(
		`INSERT INTO doc_sequences (doc_type, next_number) VALUES (?, 1)
		 ON CONFLICT(doc_type) DO UPDATE SET next_number = next_number + 1`,
		string(docType))
	if err != nil {
		return "", err
	}
	var n int64
	if err := q.QueryRow(
		`SELECT next_number FROM doc_sequences WHERE doc_type = ?`, string(docType)).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", prefix, n), nil
}

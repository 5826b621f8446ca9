package events

import (
	"encoding/json"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// Routing keys published by the ledger.
const (
	TransactionAdmitted  = "transaction.admitted"
	TransactionsImported = "transactions.imported"
	TransactionRemoved   = "transaction.removed"
)

// TransactionPayload is the wire form of a committed transaction.
type TransactionPayload struct {
	CreatedAt  time.Time `json:"created_at"`
	CategoryID *string   `json:"category_id,omitempty"`
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Value      string    `json:"value"`
}

// Message is a single ledger event. Only the fields relevant to its kind are set.
type Message struct {
	Timestamp     time.Time            `json:"timestamp"`
	Transaction   *TransactionPayload  `json:"transaction,omitempty"`
	Kind          string               `json:"kind"`
	Balance       string               `json:"balance"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Imported      []TransactionPayload `json:"imported,omitempty"`
	NewCategories int                  `json:"new_categories,omitempty"`
}

// NewPayload converts a model transaction to its wire form.
func NewPayload(txn *model.Transaction) TransactionPayload {
	return TransactionPayload{
		ID:         txn.ID,
		Title:      txn.Title,
		Type:       string(txn.Type),
		Value:      txn.Value.String(),
		CategoryID: txn.CategoryID,
		CreatedAt:  txn.CreatedAt,
	}
}

// NewAdmittedMessage describes a single admitted transaction.
func NewAdmittedMessage(txn *model.Transaction, balance string) *Message {
	payload := NewPayload(txn)
	return &Message{
		Kind:        TransactionAdmitted,
		Transaction: &payload,
		Balance:     balance,
		Timestamp:   time.Now().UTC(),
	}
}

// NewImportedMessage describes a committed import batch.
func NewImportedMessage(transactions []model.Transaction, newCategories int, balance string) *Message {
	imported := make([]TransactionPayload, len(transactions))
	for i := range transactions {
		imported[i] = NewPayload(&transactions[i])
	}
	return &Message{
		Kind:          TransactionsImported,
		Imported:      imported,
		NewCategories: newCategories,
		Balance:       balance,
		Timestamp:     time.Now().UTC(),
	}
}

// NewRemovedMessage describes a removed transaction.
func NewRemovedMessage(id, balance string) *Message {
	return &Message{
		Kind:          TransactionRemoved,
		TransactionID: id,
		Balance:       balance,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON creates a message from JSON bytes.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

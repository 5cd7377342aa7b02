package core

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Collection names in the record store. They mirror the catalog process that
// writes them, which is why they carry its naming.
const (
	CollectionBooks         = "Books"
	CollectionUsers         = "Users"
	CollectionBorrowRecords = "BorrowedBooks"
)

// Payload field names shared between the engines and the analytics features.
const (
	FieldID         = "Id"
	FieldBookID     = "BookId"
	FieldUserID     = "UserId"
	FieldBorrowDate = "BorrowDate"
	FieldDueDate    = "DueDate"
	FieldReturnDate = "ReturnDate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Book is one catalog entry. TotalCopies is the number of physical copies the
// library owns, independent of how many are currently lent out.
type Book struct {
	ID              string `json:"Id"`
	Title           string `json:"Title"`
	Author          string `json:"Author"`
	Genre           string `json:"Genre"`
	PublicationYear int    `json:"PublicationYear"`
	NoOfPages       int    `json:"NoOfPages"`
	TotalCopies     int    `json:"TotalCopies"`
}

// User is one registered library member.
type User struct {
	ID    string `json:"Id"`
	Name  string `json:"Name"`
	Email string `json:"Email"`
}

// BorrowRecord is one loan of one copy of a book to one user. A nil ReturnDate
// means the loan is still open.
type BorrowRecord struct {
	ID         string     `json:"Id"`
	BookID     string     `json:"BookId"`
	UserID     string     `json:"UserId"`
	BorrowDate time.Time  `json:"BorrowDate"`
	DueDate    time.Time  `json:"DueDate"`
	ReturnDate *time.Time `json:"ReturnDate,omitempty"`
}

// IsReturned reports whether the loan is closed.
func (r BorrowRecord) IsReturned() bool {
	return r.ReturnDate != nil
}

func BookFromJSON(payload []byte) (Book, error) {
	var book Book
	err := json.Unmarshal(payload, &book)

	return book, err
}

func UserFromJSON(payload []byte) (User, error) {
	var user User
	err := json.Unmarshal(payload, &user)

	return user, err
}

func BorrowRecordFromJSON(payload []byte) (BorrowRecord, error) {
	var record BorrowRecord
	err := json.Unmarshal(payload, &record)

	return record, err
}

func (b Book) ToJSON() ([]byte, error) {
	return json.Marshal(b)
}

func (u User) ToJSON() ([]byte, error) {
	return json.Marshal(u)
}

func (r BorrowRecord) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

package controller

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	contact "github.com/apardew63/wetarseel-server/internal/pkg/contact/domain"
	"github.com/apardew63/wetarseel-server/internal/pkg/contact/persistence/repository/adapter"
	repository "github.com/apardew63/wetarseel-server/internal/pkg/contact/persistence/repository/port"
)

// UploadCSVController handles bulk contact import from a CSV upload.
type UploadCSVController struct {
	Repo repository.ContactRepository
}

func NewUploadCSVController(pool *pgxpool.Pool) *UploadCSVController {
	return &UploadCSVController{Repo: adapter.NewPgContactRepository(pool)}
}

func (h *UploadCSVController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()

		contacts, err := ParseContactsCSV(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		count, err := h.Repo.BulkInsert(ctx, contacts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Contacts uploaded successfully!",
			"count":   count,
		})
	}
}

// ParseContactsCSV reads contact rows from CSV data. The header row names
// the columns; name is required per row, unknown columns are ignored and
// tags may be separated by semicolons.
func ParseContactsCSV(r io.Reader) ([]contact.Contact, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("empty or unreadable CSV file")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, errors.New("CSV must have a name column")
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var contacts []contact.Contact
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		var tags []string
		if raw := field(record, "tags"); raw != "" {
			for _, tag := range strings.Split(raw, ";") {
				if tag = strings.TrimSpace(tag); tag != "" {
					tags = append(tags, tag)
				}
			}
		}

		ct, err := contact.New(contact.Contact{
			Name:   field(record, "name"),
			Email:  field(record, "email"),
			Phone:  field(record, "phone"),
			Tags:   tags,
			List:   field(record, "list"),
			Status: contact.Status(field(record, "status")),
		})
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *ct)
	}

	if len(contacts) == 0 {
		return nil, errors.New("CSV contains no contact rows")
	}
	return contacts, nil
}

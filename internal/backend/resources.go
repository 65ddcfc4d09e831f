package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/masjidku/masjidku-web/internal/models"
)

// ListParams are the query options shared by list endpoints
type ListParams struct {
	Page   int
	Status string
	Search string
}

func (p ListParams) query() string {
	q := url.Values{}
	if p.Page > 1 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// listEnvelope covers {"data": [...]}, {"data": {paginated}} and paginated bodies
type listEnvelope struct {
	Data        json.RawMessage `json:"data"`
	CurrentPage int             `json:"current_page"`
	LastPage    int             `json:"last_page"`
	PerPage     int             `json:"per_page"`
	Total       int             `json:"total"`
}

// decodePage turns any of the backend list shapes into a models.Page
func decodePage[T any](data []byte) (models.Page[T], error) {
	var page models.Page[T]
	trimmed := bytes.TrimSpace(data)

	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := sonic.Unmarshal(trimmed, &page.Data); err != nil {
			return page, fmt.Errorf("failed to decode list: %w", err)
		}
		page.CurrentPage, page.LastPage, page.Total = 1, 1, len(page.Data)
		page.PerPage = len(page.Data)
		return page, nil
	}

	var env listEnvelope
	if err := sonic.Unmarshal(trimmed, &env); err != nil {
		return page, fmt.Errorf("failed to decode list: %w", err)
	}
	inner := bytes.TrimSpace(env.Data)
	if len(inner) > 0 && inner[0] == '{' {
		// {"success": true, "data": {paginated}}
		return decodePage[T](inner)
	}
	if len(inner) == 0 {
		inner = []byte("[]")
	}
	if err := sonic.Unmarshal(inner, &page.Data); err != nil {
		return page, fmt.Errorf("failed to decode list: %w", err)
	}

	page.CurrentPage, page.LastPage = env.CurrentPage, env.LastPage
	page.PerPage, page.Total = env.PerPage, env.Total
	if page.CurrentPage == 0 {
		page.CurrentPage, page.LastPage, page.Total = 1, 1, len(page.Data)
	}
	return page, nil
}

// dataEnvelope unwraps {"data": {...}} single-object responses
type dataEnvelope[T any] struct {
	Data *T `json:"data"`
}

func decodeOne[T any](data []byte) (*T, error) {
	var env dataEnvelope[T]
	if err := sonic.Unmarshal(data, &env); err == nil && env.Data != nil {
		return env.Data, nil
	}
	var v T
	if err := sonic.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &v, nil
}

func (c *Client) raw(ctx context.Context, method, path string, creds Credentials, body any) ([]byte, error) {
	resp, err := c.send(ctx, method, path, creds, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func list[T any](ctx context.Context, c *Client, path string, creds Credentials, params ListParams) (models.Page[T], error) {
	data, err := c.raw(ctx, http.MethodGet, path+params.query(), creds, nil)
	if err != nil {
		return models.Page[T]{}, err
	}
	return decodePage[T](data)
}

func create[T any](ctx context.Context, c *Client, method, path string, creds Credentials, body any) (*T, error) {
	data, err := c.raw(ctx, method, path, creds, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return new(T), nil
	}
	return decodeOne[T](data)
}

func (c *Client) remove(ctx context.Context, path string, creds Credentials, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", path, id), creds, nil, nil)
}

// Articles

type ArticleInput struct {
	Judul   string `json:"judul" validate:"required,max=255"`
	Konten  string `json:"konten" validate:"required"`
	Penulis string `json:"penulis,omitempty" validate:"max=100"`
	Gambar  string `json:"gambar,omitempty" validate:"omitempty,url"`
}

func (c *Client) ListArticles(ctx context.Context, creds Credentials, params ListParams) (models.Page[models.Article], error) {
	return list[models.Article](ctx, c, "/api/articles", creds, params)
}

func (c *Client) CreateArticle(ctx context.Context, creds Credentials, in ArticleInput) (*models.Article, error) {
	return create[models.Article](ctx, c, http.MethodPost, "/api/articles", creds, in)
}

func (c *Client) DeleteArticle(ctx context.Context, creds Credentials, id int64) error {
	return c.remove(ctx, "/api/articles", creds, id)
}

// Donations

type DonationInput struct {
	NamaDonatur      string        `json:"nama_donatur" validate:"required,max=100"`
	JumlahDonasi     models.Amount `json:"jumlah_donasi" validate:"required,gt=0"`
	MetodePembayaran string        `json:"metode_pembayaran" validate:"required,oneof=tunai transfer qris"`
	Keterangan       string        `json:"keterangan,omitempty" validate:"max=500"`
	TanggalDonasi    string        `json:"tanggal_donasi,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (c *Client) ListDonations(ctx context.Context, creds Credentials, params ListParams) (models.Page[models.Donation], error) {
	return list[models.Donation](ctx, c, "/api/donations", creds, params)
}

func (c *Client) MyDonations(ctx context.Context, creds Credentials, params ListParams) (models.Page[models.Donation], error) {
	return list[models.Donation](ctx, c, "/api/my-donations", creds, params)
}

func (c *Client) DonationStatistics(ctx context.Context, creds Credentials) (*models.DonationStatistics, error) {
	data, err := c.raw(ctx, http.MethodGet, "/api/donations/statistics", creds, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.DonationStatistics](data)
}

func (c *Client) CreateDonation(ctx context.Context, creds Credentials, in DonationInput) (*models.Donation, error) {
	return create[models.Donation](ctx, c, http.MethodPost, "/api/donations", creds, in)
}

// ExportDonations streams the backend CSV export. The caller must close the
// returned body.
func (c *Client) ExportDonations(ctx context.Context, creds Credentials, params ListParams) (io.ReadCloser, string, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/donations/export"+params.query(), creds, nil)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, "", parseAPIError(resp.StatusCode, data)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}
	return resp.Body, contentType, nil
}

// Activities (kegiatan)

type ActivityInput struct {
	NamaKegiatan string `json:"nama_kegiatan" validate:"required,max=255"`
	Deskripsi    string `json:"deskripsi,omitempty"`
	Tanggal      string `json:"tanggal" validate:"required,datetime=2006-01-02"`
	Waktu        string `json:"waktu,omitempty" validate:"omitempty,datetime=15:04"`
	Lokasi       string `json:"lokasi,omitempty" validate:"max=255"`
}

func (c *Client) ListActivities(ctx context.Context, creds Credentials, params ListParams) (models.Page[models.Activity], error) {
	return list[models.Activity](ctx, c, "/api/activities", creds, params)
}

func (c *Client) CreateActivity(ctx context.Context, creds Credentials, in ActivityInput) (*models.Activity, error) {
	return create[models.Activity](ctx, c, http.MethodPost, "/api/activities", creds, in)
}

func (c *Client) UpdateActivity(ctx context.Context, creds Credentials, id int64, in ActivityInput) (*models.Activity, error) {
	return create[models.Activity](ctx, c, http.MethodPut, fmt.Sprintf("/api/activities/%d", id), creds, in)
}

func (c *Client) DeleteActivity(ctx context.Context, creds Credentials, id int64) error {
	return c.remove(ctx, "/api/activities", creds, id)
}

// Expenses

type ExpenseInput struct {
	Keterangan string        `json:"keterangan" validate:"required,max=255"`
	Kategori   string        `json:"kategori" validate:"required,max=100"`
	Jumlah     models.Amount `json:"jumlah" validate:"required,gt=0"`
	Tanggal    string        `json:"tanggal" validate:"required,datetime=2006-01-02"`
}

func (c *Client) ListExpenses(ctx context.Context, creds Credentials, params ListParams) (models.Page[models.Expense], error) {
	return list[models.Expense](ctx, c, "/api/expenses", creds, params)
}

func (c *Client) ExpenseTotals(ctx context.Context, creds Credentials) (*models.ExpenseTotals, error) {
	data, err := c.raw(ctx, http.MethodGet, "/api/expenses/total", creds, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.ExpenseTotals](data)
}

func (c *Client) CreateExpense(ctx context.Context, creds Credentials, in ExpenseInput) (*models.Expense, error) {
	return create[models.Expense](ctx, c, http.MethodPost, "/api/expenses", creds, in)
}

func (c *Client) DeleteExpense(ctx context.Context, creds Credentials, id int64) error {
	return c.remove(ctx, "/api/expenses", creds, id)
}

// Users

type UserUpdate struct {
	Name  string      `json:"name,omitempty" validate:"omitempty,max=100"`
	Email string      `json:"email,omitempty" validate:"omitempty,email"`
	Role  models.Role `json:"role" validate:"required,oneof=admin takmir warga"`
}

func (c *Client) ListUsers(ctx context.Context, creds Credentials, params ListParams) (models.Page[models.User], error) {
	return list[models.User](ctx, c, "/api/users", creds, params)
}

func (c *Client) UpdateUser(ctx context.Context, creds Credentials, id int64, in UserUpdate) (*models.User, error) {
	return create[models.User](ctx, c, http.MethodPut, fmt.Sprintf("/api/users/%d", id), creds, in)
}

func (c *Client) DeleteUser(ctx context.Context, creds Credentials, id int64) error {
	return c.remove(ctx, "/api/users", creds, id)
}

// Aspirations (aspirasi)

type AspirationInput struct {
	Judul string `json:"judul" validate:"required,max=255"`
	Isi   string `json:"isi" validate:"required,max=2000"`
}

func (c *Client) ListAspirations(ctx context.Context, creds Credentials, params ListParams) (models.Page[models.Aspiration], error) {
	return list[models.Aspiration](ctx, c, "/api/aspirations", creds, params)
}

func (c *Client) CreateAspiration(ctx context.Context, creds Credentials, in AspirationInput) (*models.Aspiration, error) {
	return create[models.Aspiration](ctx, c, http.MethodPost, "/api/aspirations", creds, in)
}

func (c *Client) DeleteAspiration(ctx context.Context, creds Credentials, id int64) error {
	return c.remove(ctx, "/api/aspirations", creds, id)
}

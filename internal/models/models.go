package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// User is the identity reported by the backend for the current token.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Amount is a rupiah value. The backend serialises decimals as strings
// ("100000.00") on reads but expects plain numbers on writes.
type Amount int64

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(a), 10)), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	v, err := ParseAmount(raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseAmount parses user or backend input such as "100000", "100000.00"
// or "100.000" into whole rupiah. A non-zero fraction is rejected.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if i := strings.Index(s, "."); i >= 0 && strings.Count(s, ".") == 1 && len(s)-i-1 <= 2 {
		// decimal fraction
		whole, frac := s[:i], s[i+1:]
		if strings.Trim(frac, "0") != "" {
			return 0, fmt.Errorf("amount %q is not whole rupiah", s)
		}
		s = whole
	}
	s = strings.ReplaceAll(s, ".", "")
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return Amount(v), nil
}

// Rupiah formats the amount for display, e.g. "Rp 1.250.000".
func (a Amount) Rupiah() string {
	n := int64(a)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return "Rp " + sign + b.String()
}

// Donation status values used by the backend
const (
	DonationPending  = "pending"
	DonationVerified = "verified"
	DonationRejected = "rejected"
)

type Donation struct {
	ID               int64     `json:"id"`
	UserID           *int64    `json:"user_id,omitempty"`
	NamaDonatur      string    `json:"nama_donatur"`
	JumlahDonasi     Amount    `json:"jumlah_donasi"`
	MetodePembayaran string    `json:"metode_pembayaran"`
	Status           string    `json:"status"`
	Keterangan       string    `json:"keterangan,omitempty"`
	TanggalDonasi    string    `json:"tanggal_donasi"`
	CreatedAt        time.Time `json:"created_at"`
}

type DonationStatistics struct {
	TotalDonasi   Amount `json:"total_donasi"`
	JumlahDonatur int    `json:"jumlah_donatur"`
	BulanIni      Amount `json:"bulan_ini"`
	Pending       int    `json:"pending"`
}

type Expense struct {
	ID         int64     `json:"id"`
	Keterangan string    `json:"keterangan"`
	Kategori   string    `json:"kategori"`
	Jumlah     Amount    `json:"jumlah"`
	Tanggal    string    `json:"tanggal"`
	CreatedAt  time.Time `json:"created_at"`
}

type ExpenseTotals struct {
	Total    Amount `json:"total"`
	BulanIni Amount `json:"bulan_ini"`
}

// Activity is a scheduled mosque event (kegiatan).
type Activity struct {
	ID           int64  `json:"id"`
	NamaKegiatan string `json:"nama_kegiatan"`
	Deskripsi    string `json:"deskripsi"`
	Tanggal      string `json:"tanggal"`
	Waktu        string `json:"waktu"`
	Lokasi       string `json:"lokasi"`
}

type Article struct {
	ID        int64     `json:"id"`
	Judul     string    `json:"judul"`
	Konten    string    `json:"konten"`
	Penulis   string    `json:"penulis"`
	Gambar    string    `json:"gambar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Aspiration is resident-submitted feedback (aspirasi).
type Aspiration struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Nama      string    `json:"nama,omitempty"`
	Judul     string    `json:"judul"`
	Isi       string    `json:"isi"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// HasNext reports whether a later page exists.
func (p Page[T]) HasNext() bool {
	return p.CurrentPage < p.LastPage
}

// HasPrev reports whether an earlier page exists.
func (p Page[T]) HasPrev() bool {
	return p.CurrentPage > 1
}

package services

import (
	"testing"
	"unicode/utf8"

	"github.com/example/bagswap/internal/models"
)

func TestMaskContact(t *testing.T) {
	u := &models.User{FullName: "John Doe", Email: "john@example.com", Phone: "+91-9876543210", TrustScore: 55}
	got := MaskContact(u)

	if got.FullName != "J. D*****" {
		t.Errorf("name = %q", got.FullName)
	}
	if got.Email != "j****@example.com" {
		t.Errorf("email = %q", got.Email)
	}
	if got.Phone != "+91-98xxxxxx" {
		t.Errorf("phone = %q", got.Phone)
	}
	if got.TrustScore != 55 {
		t.Errorf("trust score = %d", got.TrustScore)
	}
}

func TestMaskEdgeCases(t *testing.T) {
	if got := maskName("Cher"); got != "C*****" {
		t.Errorf("single name = %q", got)
	}
	if got := maskPhone("12345"); got != "xxxxxx" {
		t.Errorf("short phone = %q", got)
	}
	if got := maskPhone("+٩١-٩٨٧٦٥٤٣٢١٠"); got != "+٩١-٩٨xxxxxx" || !utf8.ValidString(got) {
		t.Errorf("non-ascii phone = %q", got)
	}
	if got := MaskContact(&models.User{Email: "a@b.c"}); got.FullName != "" || got.Phone != "" {
		t.Errorf("empty fields must stay empty: %+v", got)
	}
	if MaskContact(nil) != nil {
		t.Error("nil user must mask to nil")
	}
}

package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/westapp/estatehub-core/internal/auth"
	"github.com/westapp/estatehub-core/internal/identity/identitytest"
	"github.com/westapp/estatehub-core/internal/infrastructure/logging"
)

func newTestClient(t *testing.T) (*Client, *identitytest.Server) {
	t.Helper()

	fake := identitytest.New()
	t.Cleanup(fake.Close)

	client := NewClient(fake.URL(), 5*time.Second, logging.Default())
	return client, fake
}

func seedLandlord(fake *identitytest.Server) {
	fake.Seed(identitytest.Account{
		Name:        "Ada Okafor",
		Email:       "ada@example.com",
		Phone:       "+2348012345678",
		Password:    "secret",
		RoleID:      3,
		HouseNumber: "B12",
		EstateID:    "estate-7",
		Active:      true,
	})
}

func TestClientLogin(t *testing.T) {
	client, fake := newTestClient(t)
	seedLandlord(fake)

	sess, err := client.Login(context.Background(), "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected a token")
	}
	if !fake.TokenValid(sess.Token) {
		t.Error("issued token should be valid on the service")
	}
	if sess.Identity.Role != auth.RoleLandlord {
		t.Errorf("role = %q, want landlord", sess.Identity.Role)
	}
	if sess.Identity.Email != "ada@example.com" || sess.Identity.Phone != "+2348012345678" {
		t.Errorf("identity fields: %+v", sess.Identity)
	}
	if sess.Identity.HouseNumber != "B12" || sess.Identity.EstateID != "estate-7" {
		t.Errorf("scoping fields not carried: %+v", sess.Identity)
	}
	if !sess.Identity.IsActive {
		t.Error("expected active identity")
	}
	if sess.Identity.LastLogin == nil {
		t.Error("expected last login to be stamped")
	}
}

func TestClientLogin_BadCredentials(t *testing.T) {
	client, fake := newTestClient(t)
	seedLandlord(fake)

	_, err := client.Login(context.Background(), "ada@example.com", "wrong")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("Login = %v, want ErrInvalidCredentials", err)
	}

	_, err = client.Login(context.Background(), "nobody@example.com", "secret")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("Login unknown account = %v, want ErrInvalidCredentials", err)
	}
}

func TestClientRegister(t *testing.T) {
	client, fake := newTestClient(t)

	profile := auth.Profile{Name: "Bola Adeyemi", Email: "bola@example.com", Phone: "+2348098765432"}
	sess, err := client.Register(context.Background(), profile, "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Self-registration is always tenant, regardless of what a caller
	// might hope for.
	if sess.Identity.Role != auth.RoleTenant {
		t.Errorf("registered role = %q, want tenant", sess.Identity.Role)
	}
	if !fake.TokenValid(sess.Token) {
		t.Error("registration should issue a live token")
	}
}

func TestClientRegister_DuplicateEmail(t *testing.T) {
	client, fake := newTestClient(t)
	seedLandlord(fake)

	profile := auth.Profile{Name: "Imposter", Email: "ada@example.com"}
	_, err := client.Register(context.Background(), profile, "secret")
	if !errors.Is(err, auth.ErrRegistrationDenied) {
		t.Errorf("Register = %v, want ErrRegistrationDenied", err)
	}
}

func TestClientLogout(t *testing.T) {
	client, fake := newTestClient(t)
	seedLandlord(fake)
	token := fake.IssueToken("ada@example.com")

	if err := client.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if fake.TokenValid(token) {
		t.Error("token should be revoked after logout")
	}

	// A second logout with the dead token fails; the session manager
	// treats that as non-fatal.
	if err := client.Logout(context.Background(), token); err == nil {
		t.Error("expected error revoking an already-dead token")
	}
}

func TestClientMe(t *testing.T) {
	client, fake := newTestClient(t)
	seedLandlord(fake)
	token := fake.IssueToken("ada@example.com")

	identity, err := client.Me(context.Background(), token)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if identity.Name != "Ada Okafor" || identity.Role != auth.RoleLandlord {
		t.Errorf("Me = %+v", identity)
	}
}

func TestClientMe_RevokedToken(t *testing.T) {
	client, fake := newTestClient(t)
	seedLandlord(fake)
	token := fake.IssueToken("ada@example.com")
	fake.RevokeToken(token)

	_, err := client.Me(context.Background(), token)
	if !errors.Is(err, auth.ErrSessionExpired) {
		t.Errorf("Me = %v, want ErrSessionExpired", err)
	}
}

func TestTransformUser(t *testing.T) {
	tests := []struct {
		name string
		in   rawUser
		want auth.Identity
	}{
		{
			name: "unknown role code degrades to tenant",
			in:   rawUser{ID: "9", RoleID: 42},
			want: auth.Identity{ID: "9", Role: auth.RoleTenant, IsActive: true},
		},
		{
			name: "missing is_active means active",
			in:   rawUser{ID: "1", RoleID: 1},
			want: auth.Identity{ID: "1", Role: auth.RoleSuperAdmin, IsActive: true},
		},
		{
			name: "explicit inactive",
			in:   rawUser{ID: "2", RoleID: 4, IsActive: boolPtr(false)},
			want: auth.Identity{ID: "2", Role: auth.RoleTenant, IsActive: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transformUser(tt.in)
			if got.ID != tt.want.ID || got.Role != tt.want.Role || got.IsActive != tt.want.IsActive {
				t.Errorf("transformUser = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTransformUser_CreatedAtFormats(t *testing.T) {
	rfc := transformUser(rawUser{ID: "1", CreatedAt: "2025-03-15T12:00:00Z"})
	if rfc.CreatedAt.IsZero() {
		t.Error("RFC3339 created_at should parse")
	}

	legacy := transformUser(rawUser{ID: "1", CreatedAt: "2025-03-15 12:00:00"})
	if legacy.CreatedAt.IsZero() {
		t.Error("legacy datetime created_at should parse")
	}

	garbage := transformUser(rawUser{ID: "1", CreatedAt: "yesterday"})
	if !garbage.CreatedAt.IsZero() {
		t.Error("unparseable created_at should stay zero")
	}
}

func boolPtr(b bool) *bool { return &b }

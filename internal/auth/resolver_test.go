package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/harborcrm/harbor/internal/auth"
	"github.com/harborcrm/harbor/internal/model"
	"github.com/harborcrm/harbor/tests/testutil"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)
	tenant := testutil.SeedTenant(t, s, "acme")
	role := testutil.SeedRole(t, s, tenant.ID, "manager", false, true, true)
	user := testutil.SeedUser(t, s, tenant.ID, "Ana", role.ID, nil)
	if err := s.CreateAPIToken(ctx, "ana-token", user.ID); err != nil {
		t.Fatalf("CreateAPIToken failed: %v", err)
	}

	resolver := auth.NewStoreResolver(s)

	for _, credential := range []string{"ana-token", "Bearer ana-token", "  Bearer ana-token"} {
		resolved, err := resolver.Resolve(ctx, credential)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", credential, err)
		}
		if resolved.ID != user.ID {
			t.Errorf("Resolve(%q) = user %s, want %s", credential, resolved.ID, user.ID)
		}
		if !resolved.Role.ManageTasks {
			t.Errorf("Resolve(%q) lost role capabilities", credential)
		}
	}

	for _, credential := range []string{"", "Bearer ", "no-such-token"} {
		_, err := resolver.Resolve(ctx, credential)
		if !errors.Is(err, model.ErrUnauthenticated) {
			t.Errorf("Resolve(%q): err = %v, want ErrUnauthenticated", credential, err)
		}
	}
}

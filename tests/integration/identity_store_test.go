package integration

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docident/docident/identity"
	"github.com/docident/docident/stores"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("skipping integration tests in short mode")
		os.Exit(0)
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	if err != nil {
		log.Fatalf("failed to set up test database: %v", err)
	}
	testDB = db

	code := m.Run()

	if err := db.Teardown(ctx); err != nil {
		log.Printf("teardown failed: %v", err)
	}
	os.Exit(code)
}

// freshStores truncates the document tables and returns stores over a new
// session, one per logical operation as in production use.
func freshStores(t *testing.T) (*stores.Users, *stores.Roles) {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	sess := testDB.DB.Session()
	return stores.NewUsers(sess, nil), stores.NewRoles(sess, nil)
}

func buildUser(name, normalized string) *identity.User {
	user := identity.NewUser(name)
	user.NormalizedUserName = normalized
	return user
}

func TestUserLifecycle(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	user := buildUser("alice", "ALICE")
	user.Email = "Alice@example.com"
	user.NormalizedEmail = "ALICE@EXAMPLE.COM"
	require.NoError(t, users.Create(ctx, user))

	byID, err := users.FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.UserName)
	assert.Equal(t, user.SecurityStamp, byID.SecurityStamp)

	byName, err := users.FindByName(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := users.FindByEmail(ctx, "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	user.PhoneNumber = "+15550100"
	user.TwoFactorEnabled = true
	require.NoError(t, users.Update(ctx, user))

	reloaded, err := users.FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "+15550100", reloaded.PhoneNumber)
	assert.True(t, reloaded.TwoFactorEnabled)

	require.NoError(t, users.Delete(ctx, user))
	_, err = users.FindByID(ctx, user.ID.String())
	assert.ErrorIs(t, err, identity.ErrNotFound)

	// Deleting again still succeeds.
	require.NoError(t, users.Delete(ctx, user))
}

func TestUserNameUniquenessEnforced(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	first := buildUser("Alice", "ALICE")
	require.NoError(t, users.Create(ctx, first))

	err := users.Create(ctx, buildUser("alice", "ALICE"))
	var storeErr *identity.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, identity.CodeDuplicateUserName, storeErr.Code)
	assert.ErrorIs(t, err, identity.ErrDuplicateUserName)

	found, err := users.FindByName(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestEmailUniquenessEnforced(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	first := buildUser("alice", "ALICE")
	first.NormalizedEmail = "ALICE@EXAMPLE.COM"
	require.NoError(t, users.Create(ctx, first))

	second := buildUser("alicia", "ALICIA")
	second.NormalizedEmail = "ALICE@EXAMPLE.COM"
	err := users.Create(ctx, second)

	var storeErr *identity.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, identity.CodeDuplicateEmail, storeErr.Code)
}

func TestUsersWithoutEmailDoNotCollide(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	// The email index is partial: empty emails never conflict.
	require.NoError(t, users.Create(ctx, buildUser("alice", "ALICE")))
	require.NoError(t, users.Create(ctx, buildUser("bob", "BOB")))
}

func TestFindByLogin(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	user := buildUser("alice", "ALICE")
	users.AddLogin(user, identity.Login{Provider: "google", Key: "abc", DisplayName: "Google"})
	require.NoError(t, users.Create(ctx, user))

	other := buildUser("bob", "BOB")
	users.AddLogin(other, identity.Login{Provider: "google", Key: "def", DisplayName: "Google"})
	require.NoError(t, users.Create(ctx, other))

	found, err := users.FindByLogin(ctx, "google", "abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = users.FindByLogin(ctx, "google", "xyz")
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestFindUsersByClaim(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	alice := buildUser("alice", "ALICE")
	users.AddClaims(alice, identity.Claim{Type: "team", Value: "red", Issuer: "hr"})
	require.NoError(t, users.Create(ctx, alice))

	bob := buildUser("bob", "BOB")
	users.AddClaims(bob,
		identity.Claim{Type: "team", Value: "red", Issuer: "import"},
		identity.Claim{Type: "team", Value: "blue", Issuer: "hr"},
	)
	require.NoError(t, users.Create(ctx, bob))

	carol := buildUser("carol", "CAROL")
	users.AddClaims(carol, identity.Claim{Type: "team", Value: ""})
	require.NoError(t, users.Create(ctx, carol))

	// Matches on (type, value) regardless of issuer, across all users.
	matched, err := users.FindUsersByClaim(ctx, identity.Claim{Type: "team", Value: "red"})
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	matched, err = users.FindUsersByClaim(ctx, identity.Claim{Type: "team", Value: "green"})
	require.NoError(t, err)
	assert.Empty(t, matched)

	// An empty value matches only claims stored with an empty value; it is
	// never a wildcard over every "team" claim.
	matched, err = users.FindUsersByClaim(ctx, identity.Claim{Type: "team", Value: ""})
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, carol.ID, matched[0].ID)
}

func TestEmptyLookupKeysAreNotFound(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, buildUser("alice", "ALICE")))

	_, err := users.FindByName(ctx, "")
	assert.ErrorIs(t, err, identity.ErrNotFound)

	// alice has no email, stored as ""; the lookup still misses.
	_, err = users.FindByEmail(ctx, "")
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestRoleMembership(t *testing.T) {
	users, roles := freshStores(t)
	ctx := context.Background()

	admin := identity.NewRole("Admin")
	admin.NormalizedName = "ADMIN"
	require.NoError(t, roles.Create(ctx, admin))

	alice := buildUser("alice", "ALICE")
	require.NoError(t, users.AddToRole(ctx, alice, "ADMIN"))
	require.NoError(t, users.Create(ctx, alice))

	bob := buildUser("bob", "BOB")
	require.NoError(t, users.Create(ctx, bob))

	assert.True(t, users.IsInRole(alice, "ADMIN"))

	members, err := users.UsersInRole(ctx, "ADMIN")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, alice.ID, members[0].ID)

	err = users.AddToRole(ctx, bob, "NONEXISTENT-ROLE")
	require.ErrorIs(t, err, identity.ErrRoleNotFound)
	assert.Empty(t, bob.Roles)
}

func TestRoleLifecycle(t *testing.T) {
	_, roles := freshStores(t)
	ctx := context.Background()

	auditor := identity.NewRole("Auditor")
	auditor.NormalizedName = "AUDITOR"
	require.NoError(t, roles.Create(ctx, auditor))

	found, err := roles.FindByName(ctx, "AUDITOR")
	require.NoError(t, err)
	assert.Equal(t, auditor.ID, found.ID)

	err = roles.Create(ctx, func() *identity.Role {
		r := identity.NewRole("auditor")
		r.NormalizedName = "AUDITOR"
		return r
	}())
	var storeErr *identity.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, identity.CodeConflict, storeErr.Code)

	require.NoError(t, roles.Delete(ctx, auditor))
	_, err = roles.FindByName(ctx, "AUDITOR")
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestBatchedSaveChanges(t *testing.T) {
	require.NoError(t, testDB.CleanupTables(context.Background()))
	ctx := context.Background()

	// Several writes batched on one session commit in a single transaction.
	sess := testDB.DB.Session()
	alice := buildUser("alice", "ALICE")
	admin := identity.NewRole("Admin")
	admin.NormalizedName = "ADMIN"
	sess.StoreUser(alice)
	sess.StoreRole(admin)

	// Edits made after enqueueing are still captured: documents serialize
	// at save time.
	alice.SetToken("authenticator", "key", "v1")
	require.NoError(t, sess.SaveChanges(ctx))

	check := testDB.DB.Session()
	reloaded, err := check.LoadUser(ctx, alice.ID)
	require.NoError(t, err)
	value, ok := reloaded.GetToken("authenticator", "key")
	assert.True(t, ok)
	assert.Equal(t, "v1", value)

	role, err := check.FindRoleByNormalizedName(ctx, "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, role.ID)
}

func TestAtomicityOnConstraintViolation(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, buildUser("alice", "ALICE")))

	// One batch: a fine user and a duplicate. The whole transaction rolls
	// back, so the fine user must not be committed either.
	sess := testDB.DB.Session()
	carol := buildUser("carol", "CAROL")
	dup := buildUser("alice2", "ALICE")
	sess.StoreUser(carol)
	sess.StoreUser(dup)

	err := sess.SaveChanges(ctx)
	require.ErrorIs(t, err, identity.ErrDuplicateUserName)

	_, err = testDB.DB.Session().LoadUser(ctx, carol.ID)
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestRecoveryCodesPersistence(t *testing.T) {
	users, _ := freshStores(t)
	ctx := context.Background()

	user := buildUser("alice", "ALICE")
	users.ReplaceRecoveryCodes(user, []string{"one", "two", "three"})
	require.NoError(t, users.Create(ctx, user))

	reloaded, err := users.FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 3, users.CountRecoveryCodes(reloaded))

	assert.True(t, users.RedeemRecoveryCode(reloaded, "two"))
	require.NoError(t, users.Update(ctx, reloaded))

	again, err := users.FindByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, users.CountRecoveryCodes(again))
	assert.False(t, again.RedeemRecoveryCode("two"))
}

func TestCanceledContext(t *testing.T) {
	users, _ := freshStores(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := users.Create(ctx, buildUser("alice", "ALICE"))
	var storeErr *identity.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, identity.CodeCanceled, storeErr.Code)
}

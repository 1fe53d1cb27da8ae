package http_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/ipanov/UrbanAI-sub002/internal/domain"
)

func TestExchangeToken_UnknownIdentity404(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/auth/exchange-token",
		`{"provider":"google","accessToken":"mock:stranger"}`, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		RequiresRegistration bool   `json:"requiresRegistration"`
		Provider             string `json:"provider"`
		ExternalID           string `json:"externalId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.RequiresRegistration || resp.Provider != "google" || resp.ExternalID != "stranger" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestExchangeToken_AfterRegistration(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "returning", "citizen")

	w := env.do(t, "POST", "/api/auth/exchange-token",
		`{"provider":"google","accessToken":"mock:returning"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("resp: %v %s", err, w.Body.String())
	}
}

func TestExchangeToken_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/auth/exchange-token",
		`{"provider":"github","accessToken":"mock:x"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown provider: %d %s", w.Code, w.Body.String())
	}
	w = env.do(t, "POST", "/api/auth/exchange-token",
		`{"provider":"google"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing token: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterExternal_WithExternalID(t *testing.T) {
	env := newTestEnv(t)

	// The exchange miss hands the client an externalId...
	w := env.do(t, "POST", "/api/auth/exchange-token",
		`{"provider":"google","accessToken":"mock:walkup"}`, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("exchange: %d %s", w.Code, w.Body.String())
	}
	var miss struct {
		ExternalID string `json:"externalId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &miss); err != nil || miss.ExternalID == "" {
		t.Fatalf("miss body: %v %s", err, w.Body.String())
	}

	// ...which registers directly, with no access token in the payload.
	w = env.do(t, "POST", "/api/auth/register-external",
		`{"provider":"google","externalId":"`+miss.ExternalID+`","userType":"citizen"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	var reg struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil || reg.Token == "" {
		t.Fatalf("register body: %v %s", err, w.Body.String())
	}
	if reg.Username != "google_walkup" {
		t.Fatalf("username = %q", reg.Username)
	}

	// A later exchange now succeeds.
	w = env.do(t, "POST", "/api/auth/exchange-token",
		`{"provider":"google","accessToken":"mock:walkup"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("re-exchange: %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterExternal_MissingIdentity(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/auth/register-external", `{"provider":"google"}`, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "externalId") {
		t.Fatalf("error should name externalId: %s", w.Body.String())
	}
}

func TestIssueLifecycle(t *testing.T) {
	env := newTestEnv(t)
	reporter := env.register(t, "rep-1", "citizen")

	// create
	w := env.do(t, "POST", "/api/issues",
		`{"title":"Broken bench","description":"Slats missing","latitude":41.99,"longitude":21.43}`,
		reporter)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, "/api/issues/") {
		t.Fatalf("location = %q", loc)
	}
	var created domain.Issue
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Status != domain.StatusOpen {
		t.Fatalf("status = %s", created.Status)
	}

	// get
	w = env.do(t, "GET", loc, "", reporter)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}

	// update status
	w = env.do(t, "PUT", loc, `{"status":"Resolved","resolution":"Replaced slats"}`, reporter)
	if w.Code != http.StatusOK {
		t.Fatalf("update: %d %s", w.Code, w.Body.String())
	}
	var updated domain.Issue
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Status != domain.StatusResolved {
		t.Fatalf("status after update = %s", updated.Status)
	}

	// delete
	w = env.do(t, "DELETE", loc, "", reporter)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
	w = env.do(t, "GET", loc, "", reporter)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", w.Code)
	}
}

func TestIssueOwnership(t *testing.T) {
	env := newTestEnv(t)
	reporter := env.register(t, "owner", "citizen")
	other := env.register(t, "other", "citizen")
	authority := env.register(t, "gov", "authority")

	w := env.do(t, "POST", "/api/issues",
		`{"title":"Leaking hydrant","description":"Corner of Oak St"}`, reporter)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")

	if w = env.do(t, "PUT", loc, `{"status":"Closed"}`, other); w.Code != http.StatusForbidden {
		t.Fatalf("other citizen update: %d %s", w.Code, w.Body.String())
	}
	if w = env.do(t, "DELETE", loc, "", other); w.Code != http.StatusForbidden {
		t.Fatalf("other citizen delete: %d", w.Code)
	}
	if w = env.do(t, "PUT", loc, `{"status":"InProgress"}`, authority); w.Code != http.StatusOK {
		t.Fatalf("authority update: %d %s", w.Code, w.Body.String())
	}
}

func TestListIssues_Scoping(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice", "citizen")
	bob := env.register(t, "bob", "citizen")
	authority := env.register(t, "inspector", "authority")

	for _, tok := range []string{alice, alice, bob} {
		w := env.do(t, "POST", "/api/issues", `{"title":"t","description":"d"}`, tok)
		if w.Code != http.StatusCreated {
			t.Fatalf("create: %d %s", w.Code, w.Body.String())
		}
	}

	count := func(tok string) int {
		w := env.do(t, "GET", "/api/issues", "", tok)
		if w.Code != http.StatusOK {
			t.Fatalf("list: %d %s", w.Code, w.Body.String())
		}
		var issues []domain.Issue
		if err := json.Unmarshal(w.Body.Bytes(), &issues); err != nil {
			t.Fatal(err)
		}
		return len(issues)
	}
	if n := count(alice); n != 2 {
		t.Fatalf("alice sees %d, want 2", n)
	}
	if n := count(bob); n != 1 {
		t.Fatalf("bob sees %d, want 1", n)
	}
	if n := count(authority); n != 3 {
		t.Fatalf("authority sees %d, want 3", n)
	}
}

func TestIssues_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, "GET", "/api/issues", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: %d", w.Code)
	}
	if w := env.do(t, "GET", "/api/issues", "", "garbage.token.here"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}
}

func TestRegulations_AuthorityOnlyWrites(t *testing.T) {
	env := newTestEnv(t)
	citizen := env.register(t, "cit", "citizen")
	authority := env.register(t, "auth", "authority")

	body := `{"title":"Noise ordinance","content":"Quiet hours 22:00-07:00","location":"Skopje","keywords":["noise"]}`
	if w := env.do(t, "POST", "/api/regulations", body, citizen); w.Code != http.StatusForbidden {
		t.Fatalf("citizen create: %d %s", w.Code, w.Body.String())
	}

	w := env.do(t, "POST", "/api/regulations", body, authority)
	if w.Code != http.StatusCreated {
		t.Fatalf("authority create: %d %s", w.Code, w.Body.String())
	}
	var created domain.Regulation
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("created: %v %s", err, w.Body.String())
	}

	// any authenticated caller may read and search
	if w = env.do(t, "GET", "/api/regulations/"+created.ID, "", citizen); w.Code != http.StatusOK {
		t.Fatalf("citizen read: %d %s", w.Code, w.Body.String())
	}
	w = env.do(t, "GET", "/api/regulations?q=noise", "", citizen)
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}
	var found []domain.Regulation
	if err := json.Unmarshal(w.Body.Bytes(), &found); err != nil || len(found) != 1 {
		t.Fatalf("search results: %v %s", err, w.Body.String())
	}

	if w = env.do(t, "DELETE", "/api/regulations/"+created.ID, "", citizen); w.Code != http.StatusForbidden {
		t.Fatalf("citizen delete: %d", w.Code)
	}
	if w = env.do(t, "DELETE", "/api/regulations/"+created.ID, "", authority); w.Code != http.StatusNoContent {
		t.Fatalf("authority delete: %d %s", w.Code, w.Body.String())
	}
}

func TestTermsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, "GET", "/api/terms", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("no active terms: %d", w.Code)
	}

	env.Terms.mu.Lock()
	env.Terms.current = &domain.TermsOfService{Version: "1.0", Title: "ToS", IsActive: true}
	env.Terms.mu.Unlock()

	w := env.do(t, "GET", "/api/terms", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("terms: %d %s", w.Code, w.Body.String())
	}
	var tos domain.TermsOfService
	if err := json.Unmarshal(w.Body.Bytes(), &tos); err != nil || tos.Version != "1.0" {
		t.Fatalf("terms body: %v %s", err, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	if w := env.do(t, "GET", "/healthz", "", ""); w.Code != http.StatusOK {
		t.Fatalf("healthz: %d %s", w.Code, w.Body.String())
	}
}

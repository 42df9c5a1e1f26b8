package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	rollcallvoting "plenary/contexts/chamber-floor/roll-call-voting"
	"plenary/contexts/chamber-floor/roll-call-voting/domain/entities"
	chamberhttp "plenary/contexts/chamber-floor/roll-call-voting/transport/http"
)

type actorHeaders struct {
	id   string
	role string
}

var (
	chair     = actorHeaders{id: "chair-1", role: "presiding"}
	clerk     = actorHeaders{id: "clerk-1", role: "secretariat"}
	anonymous = actorHeaders{}
)

func member(id string) actorHeaders {
	return actorHeaders{id: id, role: "legislator"}
}

func newTestServer() *Server {
	roster := []entities.Legislator{
		{LegislatorID: "leg-01", DisplayName: "Ada Quispe", SeatOrder: 1, Active: true},
		{LegislatorID: "leg-02", DisplayName: "Bruno Salas", SeatOrder: 2, Active: true},
		{LegislatorID: "leg-03", DisplayName: "Carla Rojas", SeatOrder: 3, Active: true},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(rollcallvoting.NewInMemoryModule(roster, logger), nil, logger, ":0")
}

func doJSON(t *testing.T, server *Server, method string, path string, actor actorHeaders, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch value := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(value)
	default:
		buf, err := json.Marshal(value)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, apiPrefix+path, reader)
	if actor.id != "" {
		req.Header.Set("X-Actor-Id", actor.id)
	}
	if actor.role != "" {
		req.Header.Set("X-Actor-Role", actor.role)
	}
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response failed: %v (body %s)", err, rec.Body.String())
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int, code string) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	if code == "" {
		return
	}
	resp := decode[chamberhttp.ErrorResponse](t, rec)
	if resp.Code != code {
		t.Fatalf("expected error code %q, got %q", code, resp.Code)
	}
}

func prepareSitting(t *testing.T, server *Server) chamberhttp.PrepareSessionResponse {
	t.Helper()
	rec := doJSON(t, server, http.MethodPost, "/sessions", chair, chamberhttp.PrepareSessionRequest{
		Code: "2026-03-02-ordinary",
		Initiatives: []chamberhttp.AgendaItemRequest{
			{Number: 1, Title: "Approval of the minutes"},
			{Number: 2, Title: "Charter amendment", MajorityRule: "qualified"},
		},
	})
	expectStatus(t, rec, http.StatusCreated, "")
	return decode[chamberhttp.PrepareSessionResponse](t, rec)
}

func TestHealthz(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMutationsRequireActorHeaders(t *testing.T) {
	server := newTestServer()
	rec := doJSON(t, server, http.MethodPost, "/sessions", anonymous, chamberhttp.PrepareSessionRequest{Code: "x"})
	expectStatus(t, rec, http.StatusUnauthorized, "missing_actor")

	rec = doJSON(t, server, http.MethodPost, "/sessions", actorHeaders{id: "chair-1"}, chamberhttp.PrepareSessionRequest{Code: "x"})
	expectStatus(t, rec, http.StatusUnauthorized, "missing_actor")
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	server := newTestServer()

	rec := doJSON(t, server, http.MethodPost, "/sessions", member("leg-01"), chamberhttp.PrepareSessionRequest{
		Code:        "x",
		Initiatives: []chamberhttp.AgendaItemRequest{{Number: 1, Title: "Minutes"}},
	})
	expectStatus(t, rec, http.StatusForbidden, "capability_denied")

	rec = doJSON(t, server, http.MethodPost, "/sessions", actorHeaders{id: "x", role: "mayor"}, chamberhttp.PrepareSessionRequest{Code: "x"})
	expectStatus(t, rec, http.StatusBadRequest, "invalid_role")

	rec = doJSON(t, server, http.MethodPost, "/sessions", chair, `{"code":`)
	expectStatus(t, rec, http.StatusBadRequest, "invalid_json")

	rec = doJSON(t, server, http.MethodGet, "/sessions/missing", anonymous, nil)
	expectStatus(t, rec, http.StatusNotFound, "session_not_found")

	rec = doJSON(t, server, http.MethodGet, "/sessions/active", anonymous, nil)
	expectStatus(t, rec, http.StatusNotFound, "session_not_found")

	prepared := prepareSitting(t, server)
	sessionID := prepared.Session.SessionID

	rec = doJSON(t, server, http.MethodPost, "/sessions", chair, chamberhttp.PrepareSessionRequest{
		Code:        "2026-03-02-ordinary",
		Initiatives: []chamberhttp.AgendaItemRequest{{Number: 1, Title: "Minutes"}},
	})
	expectStatus(t, rec, http.StatusConflict, "duplicate")

	rec = doJSON(t, server, http.MethodPost, "/sessions/"+sessionID+"/pause", chair, chamberhttp.PauseSessionRequest{Minutes: 5})
	expectStatus(t, rec, http.StatusConflict, "session_state_conflict")

	rec = doJSON(t, server, http.MethodPost, "/initiatives/"+prepared.Initiatives[0].InitiativeID+"/activate", chair, nil)
	expectStatus(t, rec, http.StatusPreconditionFailed, "session_not_started")

	rec = doJSON(t, server, http.MethodGet, "/legislators?active=maybe", anonymous, nil)
	expectStatus(t, rec, http.StatusBadRequest, "invalid_filter")
}

func TestRequestBodyMustBeOneBoundedValue(t *testing.T) {
	server := newTestServer()

	oversized := `{"code":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := doJSON(t, server, http.MethodPost, "/sessions", chair, oversized)
	expectStatus(t, rec, http.StatusRequestEntityTooLarge, "body_too_large")

	rec = doJSON(t, server, http.MethodPost, "/sessions", chair, `{"code":"x"}{"code":"y"}`)
	expectStatus(t, rec, http.StatusBadRequest, "invalid_json")

	rec = doJSON(t, server, http.MethodPost, "/sessions", chair, `{"code":"x"} trailing`)
	expectStatus(t, rec, http.StatusBadRequest, "invalid_json")

	rec = doJSON(t, server, http.MethodPost, "/sessions", chair,
		`{"code":"2026-03-03-ordinary","initiatives":[{"number":1,"title":"Minutes"}]}`+"\n")
	expectStatus(t, rec, http.StatusCreated, "")
}

func TestSittingOverHTTP(t *testing.T) {
	server := newTestServer()
	prepared := prepareSitting(t, server)
	sessionID := prepared.Session.SessionID
	minutes := prepared.Initiatives[0].InitiativeID

	rec := doJSON(t, server, http.MethodPost, "/sessions/"+sessionID+"/start", chair, nil)
	expectStatus(t, rec, http.StatusOK, "")
	if started := decode[chamberhttp.SessionResponse](t, rec); started.State != "started" {
		t.Fatalf("expected started session, got %+v", started)
	}

	rec = doJSON(t, server, http.MethodGet, "/sessions/active", anonymous, nil)
	expectStatus(t, rec, http.StatusOK, "")
	overview := decode[chamberhttp.SessionOverviewResponse](t, rec)
	if overview.RollCall == nil || overview.ActiveLegislators != 3 {
		t.Fatalf("expected open roll call over three members, got %+v", overview)
	}
	if overview.Quorum.Required != 2 || overview.Quorum.Met {
		t.Fatalf("expected unmet quorum of 2, got %+v", overview.Quorum)
	}
	rollCallID := overview.RollCall.RollCallID

	rec = doJSON(t, server, http.MethodPost, "/initiatives/"+minutes+"/activate", chair, nil)
	expectStatus(t, rec, http.StatusPreconditionFailed, "roll_call_missing")

	for _, id := range []string{"leg-01", "leg-02", "leg-03"} {
		rec = doJSON(t, server, http.MethodPost, "/roll-calls/"+rollCallID+"/attendance", clerk, chamberhttp.MarkAttendanceRequest{
			LegislatorID: id,
			State:        "present",
		})
		expectStatus(t, rec, http.StatusOK, "")
	}
	rec = doJSON(t, server, http.MethodPost, "/roll-calls/"+rollCallID+"/confirm", clerk, nil)
	expectStatus(t, rec, http.StatusOK, "")
	if confirmed := decode[chamberhttp.RollCallResponse](t, rec); !confirmed.Confirmed || confirmed.PresentCount != 3 {
		t.Fatalf("expected confirmed roll call with three present, got %+v", confirmed)
	}

	rec = doJSON(t, server, http.MethodGet, "/sessions/"+sessionID+"/eligibility/leg-02", anonymous, nil)
	expectStatus(t, rec, http.StatusOK, "")
	if eligibility := decode[chamberhttp.EligibilityResponse](t, rec); !eligibility.Eligible {
		t.Fatalf("expected leg-02 eligible")
	}

	rec = doJSON(t, server, http.MethodPost, "/initiatives/"+minutes+"/activate", chair, nil)
	expectStatus(t, rec, http.StatusOK, "")

	for id, choice := range map[string]string{"leg-01": "favor", "leg-02": "FAVOR", "leg-03": "against"} {
		rec = doJSON(t, server, http.MethodPost, "/initiatives/"+minutes+"/votes", member(id), chamberhttp.CastVoteRequest{Choice: choice})
		expectStatus(t, rec, http.StatusOK, "")
	}
	rec = doJSON(t, server, http.MethodPost, "/initiatives/"+minutes+"/votes", member("leg-01"), chamberhttp.CastVoteRequest{
		LegislatorID: "leg-02",
		Choice:       "against",
	})
	expectStatus(t, rec, http.StatusForbidden, "vote_on_behalf")

	rec = doJSON(t, server, http.MethodGet, "/initiatives/"+minutes+"/tally", anonymous, nil)
	expectStatus(t, rec, http.StatusOK, "")
	tally := decode[chamberhttp.InitiativeTallyResponse](t, rec)
	if tally.Tally.Favor != 2 || tally.Tally.Against != 1 || len(tally.Votes) != 3 {
		t.Fatalf("unexpected live tally %+v", tally)
	}

	rec = doJSON(t, server, http.MethodPost, "/initiatives/"+minutes+"/close", chair, nil)
	expectStatus(t, rec, http.StatusOK, "")
	closed := decode[chamberhttp.CloseInitiativeResponse](t, rec)
	if closed.Initiative.Result != "approved" || closed.Replayed {
		t.Fatalf("expected approved first close, got %+v", closed)
	}
	rec = doJSON(t, server, http.MethodPost, "/initiatives/"+minutes+"/close", chair, nil)
	expectStatus(t, rec, http.StatusOK, "")
	if replay := decode[chamberhttp.CloseInitiativeResponse](t, rec); !replay.Replayed || replay.Initiative.Result != "approved" {
		t.Fatalf("expected identical replay, got %+v", replay)
	}

	rec = doJSON(t, server, http.MethodGet, fmt.Sprintf("/sessions/%s/quorum?rule=qualified", sessionID), anonymous, nil)
	expectStatus(t, rec, http.StatusOK, "")
	if quorum := decode[chamberhttp.QuorumResponse](t, rec); !quorum.Met || quorum.Present != 3 {
		t.Fatalf("unexpected quorum %+v", quorum)
	}

	rec = doJSON(t, server, http.MethodPost, "/sessions/"+sessionID+"/close", chair, nil)
	expectStatus(t, rec, http.StatusOK, "")
	closedSession := decode[chamberhttp.CloseSessionResponse](t, rec)
	if closedSession.Session.State != "closed" || len(closedSession.ForceClosed) != 0 {
		t.Fatalf("expected clean close, got %+v", closedSession)
	}

	rec = doJSON(t, server, http.MethodGet, "/sessions", anonymous, nil)
	expectStatus(t, rec, http.StatusOK, "")
	if list := decode[chamberhttp.SessionListResponse](t, rec); len(list.Items) != 1 {
		t.Fatalf("expected one session listed, got %d", len(list.Items))
	}
}

func TestLegislatorRegistryOverHTTP(t *testing.T) {
	server := newTestServer()

	rec := doJSON(t, server, http.MethodPost, "/legislators", chair, chamberhttp.RegisterLegislatorsRequest{})
	expectStatus(t, rec, http.StatusForbidden, "capability_denied")

	rec = doJSON(t, server, http.MethodPost, "/legislators", clerk, chamberhttp.RegisterLegislatorsRequest{
		Legislators: []chamberhttp.LegislatorRequest{
			{LegislatorID: "leg-04", DisplayName: "Diego Paz", SeatOrder: 4, Active: true},
		},
	})
	expectStatus(t, rec, http.StatusOK, "")
	if registered := decode[chamberhttp.RegisterLegislatorsResponse](t, rec); registered.Changed != 1 {
		t.Fatalf("expected one change, got %d", registered.Changed)
	}

	rec = doJSON(t, server, http.MethodPut, "/legislators/leg-02/active", clerk, chamberhttp.SetLegislatorActiveRequest{Active: false})
	expectStatus(t, rec, http.StatusOK, "")

	rec = doJSON(t, server, http.MethodGet, "/legislators?active=true", anonymous, nil)
	expectStatus(t, rec, http.StatusOK, "")
	list := decode[chamberhttp.LegislatorListResponse](t, rec)
	if len(list.Items) != 3 {
		t.Fatalf("expected three active legislators, got %+v", list.Items)
	}
	for _, item := range list.Items {
		if item.LegislatorID == "leg-02" {
			t.Fatalf("inactive legislator listed as active")
		}
	}

	rec = doJSON(t, server, http.MethodPut, "/legislators/leg-99/active", clerk, chamberhttp.SetLegislatorActiveRequest{Active: true})
	expectStatus(t, rec, http.StatusNotFound, "legislator_not_found")
}

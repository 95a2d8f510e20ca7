package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ballotengine "ballotbox/contexts/governance/ballot-engine"
	ballothttp "ballotbox/contexts/governance/ballot-engine/transport/http"
	"ballotbox/internal/platform/httpserver"
)

func newTestServer() http.Handler {
	module := ballotengine.NewInMemoryModule(nil, nil)
	return httpserver.New(module, nil, ":0").Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request body failed: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(target); err != nil {
		t.Fatalf("decode response body failed: %v", err)
	}
}

func createBallot(t *testing.T, handler http.Handler, chairperson string, names ...string) ballothttp.BallotResponse {
	t.Helper()
	recorder := doJSON(t, handler, http.MethodPost, "/v1/ballots", chairperson, ballothttp.CreateBallotRequest{
		ProposalNames: names,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create ballot returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var ballot ballothttp.BallotResponse
	decodeBody(t, recorder, &ballot)
	return ballot
}

func TestBallotLifecycleOverHTTP(t *testing.T) {
	handler := newTestServer()
	ballot := createBallot(t, handler, "chair-1", "A", "B")

	recorder := doJSON(t, handler, http.MethodPost, "/v1/ballots/"+ballot.BallotID+"/voters", "chair-1",
		ballothttp.RegisterVoterRequest{VoterID: "voter-1"})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register voter returned %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, handler, http.MethodPost, "/v1/ballots/"+ballot.BallotID+"/votes", "voter-1",
		ballothttp.CastVoteRequest{ProposalIndex: 1})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("cast vote returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var voter ballothttp.VoterResponse
	decodeBody(t, recorder, &voter)
	if !voter.HasVoted || voter.VotedProposal == nil || *voter.VotedProposal != 1 {
		t.Fatalf("unexpected voter after vote: %+v", voter)
	}

	recorder = doJSON(t, handler, http.MethodGet, "/v1/ballots/"+ballot.BallotID+"/winner", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get winner returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var winner ballothttp.WinnerResponse
	decodeBody(t, recorder, &winner)
	if winner.WinningIndex != 1 || winner.WinnerName != "B" || winner.VoteCount != 1 {
		t.Fatalf("unexpected winner: %+v", winner)
	}

	recorder = doJSON(t, handler, http.MethodGet, "/v1/ballots/"+ballot.BallotID+"/proposals", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get proposals returned %d: %s", recorder.Code, recorder.Body.String())
	}
	var proposals ballothttp.ProposalListResponse
	decodeBody(t, recorder, &proposals)
	if len(proposals.Items) != 2 || proposals.Items[1].VoteCount != 1 {
		t.Fatalf("unexpected tally: %+v", proposals.Items)
	}
}

func TestMutationsRequireUserHeader(t *testing.T) {
	handler := newTestServer()

	paths := []string{"/v1/ballots", "/v1/ballots/any/voters", "/v1/ballots/any/votes"}
	for _, path := range paths {
		recorder := doJSON(t, handler, http.MethodPost, path, "", map[string]any{})
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("%s without X-User-Id returned %d", path, recorder.Code)
		}
		var errResp ballothttp.ErrorResponse
		decodeBody(t, recorder, &errResp)
		if errResp.Code != "missing_user" {
			t.Fatalf("%s expected missing_user, got %q", path, errResp.Code)
		}
	}
}

func TestMalformedBodyReturnsBadRequest(t *testing.T) {
	handler := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/v1/ballots", strings.NewReader("{not json"))
	req.Header.Set("X-User-Id", "chair-1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("malformed body returned %d", recorder.Code)
	}
	var errResp ballothttp.ErrorResponse
	decodeBody(t, recorder, &errResp)
	if errResp.Code != "invalid_json" {
		t.Fatalf("expected invalid_json, got %q", errResp.Code)
	}
}

func TestDomainErrorStatusMapping(t *testing.T) {
	handler := newTestServer()
	ballot := createBallot(t, handler, "chair-1", "A", "B")

	register := func(caller, voterID string) *httptest.ResponseRecorder {
		return doJSON(t, handler, http.MethodPost, "/v1/ballots/"+ballot.BallotID+"/voters", caller,
			ballothttp.RegisterVoterRequest{VoterID: voterID})
	}
	vote := func(caller string, index int) *httptest.ResponseRecorder {
		return doJSON(t, handler, http.MethodPost, "/v1/ballots/"+ballot.BallotID+"/votes", caller,
			ballothttp.CastVoteRequest{ProposalIndex: index})
	}

	if recorder := register("intruder", "voter-1"); recorder.Code != http.StatusForbidden {
		t.Fatalf("non-chairperson registration returned %d", recorder.Code)
	}
	if recorder := register("chair-1", "voter-1"); recorder.Code != http.StatusCreated {
		t.Fatalf("registration returned %d", recorder.Code)
	}
	if recorder := register("chair-1", "voter-1"); recorder.Code != http.StatusConflict {
		t.Fatalf("double registration returned %d", recorder.Code)
	}

	if recorder := vote("stranger", 0); recorder.Code != http.StatusForbidden {
		t.Fatalf("unregistered vote returned %d", recorder.Code)
	}
	if recorder := vote("voter-1", 7); recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("out-of-range vote returned %d", recorder.Code)
	}
	if recorder := vote("voter-1", 0); recorder.Code != http.StatusCreated {
		t.Fatalf("vote returned %d", recorder.Code)
	}
	if recorder := vote("voter-1", 1); recorder.Code != http.StatusConflict {
		t.Fatalf("second vote returned %d", recorder.Code)
	}

	if recorder := doJSON(t, handler, http.MethodGet, "/v1/ballots/missing", "", nil); recorder.Code != http.StatusNotFound {
		t.Fatalf("missing ballot returned %d", recorder.Code)
	}
	if recorder := doJSON(t, handler, http.MethodPost, "/v1/ballots", "chair-1",
		ballothttp.CreateBallotRequest{ProposalNames: nil}); recorder.Code != http.StatusBadRequest {
		t.Fatalf("empty proposal list returned %d", recorder.Code)
	}
}

func TestListBallots(t *testing.T) {
	handler := newTestServer()
	createBallot(t, handler, "chair-1", "A")
	createBallot(t, handler, "chair-2", "X", "Y")

	recorder := doJSON(t, handler, http.MethodGet, "/v1/ballots", "", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list ballots returned %d", recorder.Code)
	}
	var list ballothttp.BallotListResponse
	decodeBody(t, recorder, &list)
	if len(list.Items) != 2 {
		t.Fatalf("expected 2 ballots, got %d", len(list.Items))
	}
}

package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ilmhub/coinhub/internal/model"
)

// upstream is a fake IlmHub backend with just enough behavior for the
// handler tests.
type upstream struct {
	mu          sync.Mutex
	students    map[int64]model.Student
	items       map[int64]model.RewardItem
	redemptions map[int64]model.RedemptionRequest
	users       map[string]model.User
	rawLogin    map[string]any
	me          *model.User
	promoted    map[int64]model.Role
	deleted     []int64
	registered  []map[string]string
	nextID      int64
	calls       map[string]int
	failAll     bool
}

func newUpstream() *upstream {
	return &upstream{
		students: map[int64]model.Student{
			7: {ID: 7, FirstName: "Aziz", LastName: "Karimov", StudentCode: "S-7", Coins: 40},
		},
		items: map[int64]model.RewardItem{
			3: {ID: 3, Title: "Notebook", Cost: 15, Stock: 5},
		},
		redemptions: map[int64]model.RedemptionRequest{},
		users: map[string]model.User{
			"student@example.com": {ID: 7, FirstName: "Aziz", Email: "student@example.com", Role: model.RoleStudent},
			"S-7":                 {ID: 7, FirstName: "Aziz", Email: "student@example.com", Role: model.RoleStudent},
			"admin@example.com":   {ID: 1, FirstName: "Dilnoza", Email: "admin@example.com", Role: model.RoleAdmin},
		},
		promoted: map[int64]model.Role{},
		nextID: 100,
		calls:  map[string]int{},
	}
}

func (u *upstream) count(pattern string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[pattern]
}

func signToken(user model.User, exp time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": float64(user.Role),
		"exp":  exp.Unix(),
	})
	s, err := tok.SignedString([]byte("upstream-secret"))
	if err != nil {
		panic(err)
	}
	return s
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func (u *upstream) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct{ Identifier, Password string }
		json.NewDecoder(r.Body).Decode(&creds)
		user, ok := u.users[creds.Identifier]
		if !ok || creds.Password != "secret" {
			reply(w, http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
			return
		}
		if u.rawLogin != nil {
			reply(w, http.StatusOK, u.rawLogin)
			return
		}
		reply(w, http.StatusOK, map[string]any{
			"token": signToken(user, time.Now().Add(2*time.Hour)),
			"role":  int(user.Role),
		})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			reply(w, http.StatusUnauthorized, nil)
			return
		}
		if u.me != nil {
			reply(w, http.StatusOK, u.me)
			return
		}
		reply(w, http.StatusOK, u.users["student@example.com"])
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if _, taken := u.users[body["email"]]; taken {
			reply(w, http.StatusConflict, map[string]string{"message": "email already registered"})
			return
		}
		u.registered = append(u.registered, body)
		reply(w, http.StatusCreated, nil)
	})

	mux.HandleFunc("POST /api/users/{id}/promote", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var body struct {
			Role model.Role `json:"role"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		u.promoted[id] = body.Role
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("DELETE /api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if id == 404 {
			reply(w, http.StatusNotFound, nil)
			return
		}
		u.deleted = append(u.deleted, id)
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/reward-items", func(w http.ResponseWriter, r *http.Request) {
		out := []model.RewardItem{}
		for _, id := range sortedKeys(u.items) {
			out = append(out, u.items[id])
		}
		reply(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /api/reward-items/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		it, ok := u.items[id]
		if !ok {
			reply(w, http.StatusNotFound, nil)
			return
		}
		reply(w, http.StatusOK, it)
	})

	mux.HandleFunc("GET /api/students", func(w http.ResponseWriter, r *http.Request) {
		out := []model.Student{}
		for _, id := range sortedKeys(u.students) {
			out = append(out, u.students[id])
		}
		reply(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /api/students/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		st, ok := u.students[id]
		if !ok {
			reply(w, http.StatusNotFound, nil)
			return
		}
		reply(w, http.StatusOK, st)
	})
	mux.HandleFunc("POST /api/students/{id}/transactions", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var body model.Transaction
		json.NewDecoder(r.Body).Decode(&body)
		u.nextID++
		body.ID, body.StudentID = u.nextID, id
		reply(w, http.StatusCreated, body)
	})
	mux.HandleFunc("GET /api/students/{id}/transactions", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []model.Transaction{})
	})

	mux.HandleFunc("POST /api/redemptions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StudentID    int64 `json:"studentId"`
			RewardItemID int64 `json:"rewardItemId"`
			Quantity     int   `json:"quantity"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		it := u.items[body.RewardItemID]
		u.nextID++
		red := model.RedemptionRequest{
			ID:           u.nextID,
			StudentID:    body.StudentID,
			RewardItemID: body.RewardItemID,
			RewardTitle:  it.Title,
			Quantity:     body.Quantity,
			TotalCost:    it.Cost * body.Quantity,
			Status:       model.StatusPending,
		}
		u.redemptions[red.ID] = red
		reply(w, http.StatusCreated, red)
	})
	mux.HandleFunc("GET /api/redemptions", func(w http.ResponseWriter, r *http.Request) {
		out := []model.RedemptionRequest{}
		for _, id := range sortedKeys(u.redemptions) {
			out = append(out, u.redemptions[id])
		}
		reply(w, http.StatusOK, out)
	})
	mux.HandleFunc("GET /api/redemptions/students/{id}", func(w http.ResponseWriter, r *http.Request) {
		sid, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		out := []model.RedemptionRequest{}
		for _, id := range sortedKeys(u.redemptions) {
			if u.redemptions[id].StudentID == sid {
				out = append(out, u.redemptions[id])
			}
		}
		reply(w, http.StatusOK, out)
	})
	mux.HandleFunc("PUT /api/redemptions/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		var body struct {
			NewStatus model.Status `json:"newStatus"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		red, ok := u.redemptions[id]
		if !ok {
			reply(w, http.StatusNotFound, nil)
			return
		}
		red.Status = body.NewStatus
		u.redemptions[id] = red
		reply(w, http.StatusOK, red)
	})

	mux.HandleFunc("GET /api/groups/get-all", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []model.Group{{ID: 1, Name: "All A"}, {ID: 2, Name: "All B"}})
	})
	mux.HandleFunc("GET /api/groups/my-groups", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []model.Group{{ID: 2, Name: "Mine"}})
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()
		_, pattern := mux.Handler(r)
		u.calls[pattern]++
		if u.failAll {
			reply(w, http.StatusInternalServerError, map[string]string{"error": "backend down"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

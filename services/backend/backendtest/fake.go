// Package backendtest provides an in-memory stand-in for the hosted backend.
package backendtest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"

	"rov_inventory_go/services/backend"

	"github.com/google/uuid"
)

// Row is one table row.
type Row = map[string]any

// RPCFunc handles a stored procedure call. The returned value is JSON encoded
// into the caller's out parameter.
type RPCFunc func(params map[string]any) (any, error)

// Call records one operation against the fake.
type Call struct {
	Kind   string // select, insert, upsert, update, delete, rpc, signin, ...
	Target string // table or procedure name
	Params map[string]any
}

// Fake implements backend.DataAPI, backend.AuthAPI and backend.AdminAPI.
type Fake struct {
	mu     sync.Mutex
	tables map[string][]Row
	rpcs   map[string]RPCFunc
	fail   map[string]error
	calls  []Call

	users     map[string]*backend.User
	passwords map[string]string // email -> password
	tokens    map[string]string // access token -> user id
}

var (
	_ backend.DataAPI  = (*Fake)(nil)
	_ backend.AuthAPI  = (*Fake)(nil)
	_ backend.AdminAPI = (*Fake)(nil)
)

func New() *Fake {
	return &Fake{
		tables:    map[string][]Row{},
		rpcs:      map[string]RPCFunc{},
		fail:      map[string]error{},
		users:     map[string]*backend.User{},
		passwords: map[string]string{},
		tokens:    map[string]string{},
	}
}

// Seed appends rows to table.
func (f *Fake) Seed(table string, rows ...Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		f.tables[table] = append(f.tables[table], copyRow(r))
	}
}

// Rows returns a copy of every row in table.
func (f *Fake) Rows(table string) []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Row, 0, len(f.tables[table]))
	for _, r := range f.tables[table] {
		out = append(out, copyRow(r))
	}
	return out
}

// HandleRPC registers fn for procedure name.
func (f *Fake) HandleRPC(name string, fn RPCFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rpcs[name] = fn
}

// FailOn makes the operation identified by key fail with err. Keys are
// "<kind>:<target>", e.g. "select:profiles", "rpc:rpc_whoami",
// "admin:create", "admin:delete", "auth:signin".
func (f *Fake) FailOn(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[key] = err
}

// Calls returns the operations performed so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount counts operations of kind against target.
func (f *Fake) CallCount(kind, target string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Kind == kind && c.Target == target {
			n++
		}
	}
	return n
}

// AddUser registers an identity that can sign in.
func (f *Fake) AddUser(id, email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = &backend.User{ID: id, Email: email}
	f.passwords[email] = password
}

// HasUser reports whether identity id exists.
func (f *Fake) HasUser(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok
}

func (f *Fake) record(kind, target string, params map[string]any) error {
	f.calls = append(f.calls, Call{Kind: kind, Target: target, Params: params})
	if err, ok := f.fail[kind+":"+target]; ok {
		return err
	}
	return nil
}

// Select implements backend.DataAPI.
func (f *Fake) Select(ctx context.Context, q *backend.Query, out any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("select", q.Table(), nil); err != nil {
		return 0, err
	}

	var matched []Row
	for _, r := range f.tables[q.Table()] {
		if matchAll(r, q.Filters()) {
			matched = append(matched, copyRow(r))
		}
	}

	orders := q.Orders()
	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range orders {
			a, b := fmt.Sprint(matched[i][o.Column]), fmt.Sprint(matched[j][o.Column])
			if a == b {
				continue
			}
			if o.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})

	total := int64(len(matched))
	offset, limit := q.Window()
	if q.WantsCount() && limit >= 0 && offset > 0 && offset >= len(matched) {
		return total, &backend.Error{Status: http.StatusRequestedRangeNotSatisfiable, Code: "PGRST103", Message: "Requested range not satisfiable"}
	}
	if limit >= 0 {
		if offset > len(matched) {
			offset = len(matched)
		}
		end := offset + limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[offset:end]
	}

	if matched == nil {
		matched = []Row{}
	}
	if err := reencode(matched, out); err != nil {
		return 0, err
	}
	if q.WantsCount() {
		return total, nil
	}
	return 0, nil
}

// Insert implements backend.DataAPI. Rows without an id get one.
func (f *Fake) Insert(ctx context.Context, table string, rows any, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	list, err := toRows(rows)
	if err != nil {
		return err
	}
	var params map[string]any
	if len(list) > 0 {
		params = list[0]
	}
	if err := f.record("insert", table, params); err != nil {
		return err
	}
	for _, r := range list {
		if _, ok := r["id"]; !ok {
			r["id"] = uuid.New().String()
		}
		f.tables[table] = append(f.tables[table], copyRow(r))
	}
	return reencode(list, out)
}

// Upsert implements backend.DataAPI.
func (f *Fake) Upsert(ctx context.Context, table string, rows any, onConflict string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	list, err := toRows(rows)
	if err != nil {
		return err
	}
	var params map[string]any
	if len(list) > 0 {
		params = list[0]
	}
	if err := f.record("upsert", table, params); err != nil {
		return err
	}
	for _, r := range list {
		replaced := false
		for i, existing := range f.tables[table] {
			if onConflict != "" && fmt.Sprint(existing[onConflict]) == fmt.Sprint(r[onConflict]) {
				for k, v := range r {
					f.tables[table][i][k] = v
				}
				replaced = true
				break
			}
		}
		if !replaced {
			f.tables[table] = append(f.tables[table], copyRow(r))
		}
	}
	return nil
}

// Update implements backend.DataAPI.
func (f *Fake) Update(ctx context.Context, table string, patch map[string]any, filters ...backend.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("update", table, patch); err != nil {
		return err
	}
	for _, r := range f.tables[table] {
		if matchAll(r, filters) {
			for k, v := range patch {
				r[k] = v
			}
		}
	}
	return nil
}

// Delete implements backend.DataAPI.
func (f *Fake) Delete(ctx context.Context, table string, filters ...backend.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(filters) == 0 {
		return fmt.Errorf("backend: refusing unfiltered delete on %s", table)
	}
	if err := f.record("delete", table, nil); err != nil {
		return err
	}
	kept := f.tables[table][:0]
	for _, r := range f.tables[table] {
		if !matchAll(r, filters) {
			kept = append(kept, r)
		}
	}
	f.tables[table] = kept
	return nil
}

// RPC implements backend.DataAPI. Unregistered procedures fail like a
// missing function would.
func (f *Fake) RPC(ctx context.Context, fn string, params map[string]any, out any) error {
	f.mu.Lock()
	if err := f.record("rpc", fn, params); err != nil {
		f.mu.Unlock()
		return err
	}
	handler, ok := f.rpcs[fn]
	f.mu.Unlock()

	if !ok {
		return &backend.Error{Status: 404, Code: "PGRST202", Message: "Could not find the function public." + fn}
	}
	result, err := handler(params)
	if err != nil {
		return err
	}
	return reencode(result, out)
}

// SignIn implements backend.AuthAPI.
func (f *Fake) SignIn(ctx context.Context, email, password string) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("auth", "signin", map[string]any{"email": email}); err != nil {
		return nil, err
	}
	if pw, ok := f.passwords[email]; !ok || pw != password {
		return nil, &backend.Error{Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"}
	}
	for id, u := range f.users {
		if u.Email == email {
			token := "at-" + uuid.New().String()
			f.tokens[token] = id
			return &backend.Session{AccessToken: token, RefreshToken: "rt-" + id, ExpiresIn: 3600, User: *u}, nil
		}
	}
	return nil, &backend.Error{Status: 400, Code: "invalid_grant", Message: "Invalid login credentials"}
}

// Refresh implements backend.AuthAPI.
func (f *Fake) Refresh(ctx context.Context, refreshToken string) (*backend.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("auth", "refresh", nil); err != nil {
		return nil, err
	}
	id := strings.TrimPrefix(refreshToken, "rt-")
	u, ok := f.users[id]
	if !ok {
		return nil, &backend.Error{Status: 400, Code: "refresh_token_not_found", Message: "Invalid Refresh Token"}
	}
	token := "at-" + uuid.New().String()
	f.tokens[token] = id
	return &backend.Session{AccessToken: token, RefreshToken: refreshToken, ExpiresIn: 3600, User: *u}, nil
}

// SignOut implements backend.AuthAPI.
func (f *Fake) SignOut(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("auth", "signout", nil); err != nil {
		return err
	}
	delete(f.tokens, accessToken)
	return nil
}

// GetUser implements backend.AuthAPI.
func (f *Fake) GetUser(ctx context.Context, accessToken string) (*backend.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("auth", "user", nil); err != nil {
		return nil, err
	}
	id, ok := f.tokens[accessToken]
	if !ok {
		return nil, &backend.Error{Status: 401, Code: "bad_jwt", Message: "invalid JWT"}
	}
	u := *f.users[id]
	return &u, nil
}

// CreateUser implements backend.AdminAPI.
func (f *Fake) CreateUser(ctx context.Context, params backend.CreateUserParams) (*backend.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("admin", "create", map[string]any{"email": params.Email}); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, params.Email) {
			return nil, &backend.Error{Status: 422, Code: "email_exists", Message: "A user with this email address has already been registered"}
		}
	}
	u := &backend.User{ID: uuid.New().String(), Email: params.Email, UserMetadata: params.UserMetadata}
	f.users[u.ID] = u
	f.passwords[params.Email] = params.Password
	cp := *u
	return &cp, nil
}

// GetUserByID implements backend.AdminAPI.
func (f *Fake) GetUserByID(ctx context.Context, id string) (*backend.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("admin", "get", map[string]any{"id": id}); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, backend.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// DeleteUser implements backend.AdminAPI.
func (f *Fake) DeleteUser(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.record("admin", "delete", map[string]any{"id": id}); err != nil {
		return err
	}
	if u, ok := f.users[id]; ok {
		delete(f.passwords, u.Email)
	}
	delete(f.users, id)
	return nil
}

func matchAll(r Row, filters []backend.Filter) bool {
	for _, fl := range filters {
		if !match(r, fl) {
			return false
		}
	}
	return true
}

func match(r Row, fl backend.Filter) bool {
	v, present := r[fl.Column]
	switch fl.Op {
	case backend.OpIs:
		if fl.Value == nil {
			return !present || v == nil
		}
		return fmt.Sprint(v) == fmt.Sprint(fl.Value)
	case backend.OpEq:
		return present && v != nil && fmt.Sprint(v) == fmt.Sprint(fl.Value)
	case backend.OpNeq:
		// SQL semantics: NULL <> x is not true.
		return present && v != nil && fmt.Sprint(v) != fmt.Sprint(fl.Value)
	case backend.OpILike:
		if v == nil {
			return false
		}
		return likeToRegexp(fmt.Sprint(fl.Value)).MatchString(fmt.Sprint(v))
	case backend.OpIn:
		vals, _ := fl.Value.([]string)
		for _, want := range vals {
			if present && fmt.Sprint(v) == want {
				return true
			}
		}
		return false
	case backend.OpGte:
		return present && v != nil && fmt.Sprint(v) >= fmt.Sprint(fl.Value)
	case backend.OpLte:
		return present && v != nil && fmt.Sprint(v) <= fmt.Sprint(fl.Value)
	}
	return false
}

func likeToRegexp(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "%")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("(?is)^" + strings.Join(parts, ".*") + "$")
}

func toRows(v any) ([]Row, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 && raw[0] == '[' {
		var list []Row
		err = json.Unmarshal(raw, &list)
		return list, err
	}
	var one Row
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []Row{one}, nil
}

func reencode(v any, out any) error {
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func copyRow(r Row) Row {
	cp := make(Row, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

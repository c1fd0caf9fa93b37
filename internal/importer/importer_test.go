package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/decode"
	"github.com/sells-group/roster-cli/internal/mapping"
	"github.com/sells-group/roster-cli/internal/registration"
	"github.com/sells-group/roster-cli/internal/roster"
)

const registrationsCSV = `teamname,team_logo,registertype,Pilot Name 1,Pilot Nickname 1,Pilot Phone 1,Pilot Mail 1,Pilot Name 2,Pilot Nickname 2,Pilot Phone 2,Pilot Mail 2
Falcons,falcons.png,as a teampilot,Jane Doe,JD,0049111,jd@example.com,  John Roe  ,JR,0049222,jr@example.com
Solo,,as a singlepilot,Kim Bee,KB,,,,,,
Broken,,as a teampilot,,XX,,,Ann,AN,,
`

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindByCallsign(ctx context.Context, callsign string) (*roster.Pilot, error) {
	args := m.Called(ctx, callsign)
	p, _ := args.Get(0).(*roster.Pilot)
	return p, args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, fields map[string]string) (*roster.Pilot, error) {
	args := m.Called(ctx, fields)
	p, _ := args.Get(0).(*roster.Pilot)
	return p, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id string, fields map[string]string, attrs map[string]string) (*roster.Pilot, error) {
	args := m.Called(ctx, id, fields, attrs)
	p, _ := args.Get(0).(*roster.Pilot)
	return p, args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]roster.Pilot, error) {
	args := m.Called(ctx)
	p, _ := args.Get(0).([]roster.Pilot)
	return p, args.Error(1)
}

func (m *mockStore) Reset(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *mockStore) Close() error { return m.Called().Error(0) }

func newTestStore(t *testing.T) *roster.SQLiteStore {
	t.Helper()
	st, err := roster.NewSQLite(filepath.Join(t.TempDir(), "roster.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testOptions() Options {
	cfg := registration.DefaultConfig()
	cfg.Mappings.TeamOptional = mapping.MustFromPairs(
		"registertype", "attributes:solo_mode",
		"team_logo", "logo",
	)
	return Options{
		Decode:      decode.Options{Format: decode.FormatCSV},
		Flatten:     cfg,
		DefaultTeam: "Z",
	}
}

func TestImport_EndToEnd(t *testing.T) {
	st := newTestStore(t)
	notes := &Collector{}
	im := New(st, notes)

	res, err := im.Import(context.Background(), []byte(registrationsCSV), testOptions())
	require.NoError(t, err)

	assert.True(t, res.OK)
	assert.Equal(t, 4, res.Valid())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Index)
	assert.Equal(t, []string{"Pilot Name 1 is empty"}, res.Errors[0].Messages())
	assert.Equal(t, roster.Summary{Created: 4}, res.Summary)

	pilots, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pilots, 4)

	jr, err := st.FindByCallsign(context.Background(), "JR")
	require.NoError(t, err)
	require.NotNil(t, jr)
	assert.Equal(t, "John Roe", jr.Name)
	assert.Equal(t, "Z", jr.Team)
	assert.Equal(t, map[string]string{"solo_mode": "0"}, jr.Attributes)

	kb, err := st.FindByCallsign(context.Background(), "KB")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"solo_mode": "1"}, kb.Attributes)

	assert.Contains(t, notes.Messages, "Valid pilots in registration data: 4")
	assert.Contains(t, notes.Messages, "Errors during import: row 3: Pilot Name 1 is empty")
	assert.Contains(t, notes.Messages, "Imported pilots: 4 created, 0 updated")
}

func TestImport_SecondRunUpdates(t *testing.T) {
	st := newTestStore(t)
	im := New(st, &Collector{})
	ctx := context.Background()

	_, err := im.Import(ctx, []byte(registrationsCSV), testOptions())
	require.NoError(t, err)
	res, err := im.Import(ctx, []byte(registrationsCSV), testOptions())
	require.NoError(t, err)
	assert.Equal(t, roster.Summary{Updated: 4}, res.Summary)
}

func TestImport_ResetStore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	_, err := st.Create(ctx, map[string]string{"callsign": "OLD"})
	require.NoError(t, err)

	opts := testOptions()
	opts.ResetStore = true
	res, err := New(st, &Collector{}).Import(ctx, []byte(registrationsCSV), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Summary.Created)

	old, err := st.FindByCallsign(ctx, "OLD")
	require.NoError(t, err)
	assert.Nil(t, old)
}

func TestImport_OutputIsFilteredBeforeReconcile(t *testing.T) {
	st := new(mockStore)
	ctx := context.Background()

	st.On("FindByCallsign", ctx, "JD").Return(nil, nil).Once()
	// phone, mail and logo are mapped but are not roster fields.
	st.On("Create", ctx, map[string]string{"name": "Jane Doe", "callsign": "JD", "team": "Z"}).
		Return(&roster.Pilot{ID: "id-1"}, nil).Once()

	payload := "team_logo,Pilot Name 1,Pilot Nickname 1,Pilot Phone 1,Pilot Mail 1\nlogo.png,Jane Doe,JD,0049,jd@example.com\n"
	opts := testOptions()
	opts.Flatten.MaxTeamSize = 1

	res, err := New(st, &Collector{}).Import(ctx, []byte(payload), opts)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	// The reported record still carries the unfiltered data.
	assert.Equal(t, "0049", res.Records[0].Get("phone"))
	st.AssertExpectations(t)
}

func TestImport_TotalInputFailure(t *testing.T) {
	for name, payload := range map[string]string{
		"empty":     "",
		"undecoded": "name\nJ\xfcrgen\n",
		"malformed": "a,b\n1,2,3\n",
	} {
		t.Run(name, func(t *testing.T) {
			st := new(mockStore)
			notes := &Collector{}

			res, err := New(st, notes).Import(context.Background(), []byte(payload), testOptions())
			require.Error(t, err)
			var inErr *decode.InputError
			assert.True(t, errors.As(err, &inErr))

			assert.False(t, res.OK)
			assert.Empty(t, res.Records)
			assert.Empty(t, res.Errors)
			require.Len(t, notes.Messages, 1)
			assert.Contains(t, notes.Messages[0], "Unable to import file")
			st.AssertNotCalled(t, "Reset", mock.Anything)
		})
	}
}

func TestImport_ValidInputZeroValidRows(t *testing.T) {
	st := new(mockStore)
	payload := "Pilot Name 1,Pilot Nickname 1\n,JD\n"

	res, err := New(st, &Collector{}).Import(context.Background(), []byte(payload), testOptions())
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.Records)
	assert.Len(t, res.Errors, 1)
}

func TestImport_DryRunSkipsStore(t *testing.T) {
	st := new(mockStore)
	opts := testOptions()
	opts.DryRun = true
	opts.ResetStore = true

	res, err := New(st, &Collector{}).Import(context.Background(), []byte(registrationsCSV), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Valid())
	st.AssertExpectations(t)
}

func TestImport_NoStore(t *testing.T) {
	_, err := New(nil, &Collector{}).Import(context.Background(), []byte(registrationsCSV), testOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no roster store")
}

func TestImport_ReconcileFailure(t *testing.T) {
	st := new(mockStore)
	ctx := context.Background()
	st.On("FindByCallsign", ctx, mock.Anything).Return(nil, errors.New("db down"))

	res, err := New(st, &Collector{}).Import(ctx, []byte(registrationsCSV), testOptions())
	require.Error(t, err)
	assert.True(t, res.OK, "decode succeeded, so the payload itself was fine")
}

func TestEntries(t *testing.T) {
	entries := Entries([]registration.Record{{
		Fields:     map[string]string{"name": "Jane", "callsign": "JD", "mail": "x@y"},
		Attributes: map[string]string{"solo_mode": "1"},
	}})
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]string{"name": "Jane", "callsign": "JD"}, entries[0].Fields)
	assert.Equal(t, map[string]string{"solo_mode": "1"}, entries[0].Attributes)
}

func TestTee(t *testing.T) {
	a, b := &Collector{}, &Collector{}
	Tee(a, b).Notify("hello")
	assert.Equal(t, []string{"hello"}, a.Messages)
	assert.Equal(t, []string{"hello"}, b.Messages)
}

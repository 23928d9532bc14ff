package service

import (
	"context"
	"testing"
	"time"

	"github.com/markuskkkl/dav-pimcore/config"
	"github.com/markuskkkl/dav-pimcore/internal/models"
	"github.com/markuskkkl/dav-pimcore/internal/pimcore"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBackend is a testify mock of the Pimcore client
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Probe(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockBackend) ListObjects(ctx context.Context, folderID int64, classID string) ([]models.ObjectListing, error) {
	args := m.Called(ctx, folderID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ObjectListing), args.Error(1)
}

func (m *MockBackend) FetchObject(ctx context.Context, id int64) (map[string]interface{}, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

func testConfig() config.BackendConfig {
	return config.BackendConfig{
		FolderID:     67,
		TourClassID:  "5",
		EventClassID: "9",
		RequestDelay: 0,
	}
}

func detailWithStart(title string, start time.Time) map[string]interface{} {
	return map[string]interface{}{
		"title": title,
		"dates": map[string]interface{}{
			"data": []interface{}{
				map[string]interface{}{"dateStart": float64(start.Unix())},
			},
		},
	}
}

func TestRunAbortsWhenProbeFails(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Probe", mock.Anything).Return(false)

	collector := NewCollector(backend, nil, nil, nil, testConfig())

	_, err := collector.Run(context.Background())

	require.ErrorIs(t, err, ErrProbeFailed)
	backend.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunCollectsBothClassesSorted(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Probe", mock.Anything).Return(true)
	backend.On("ListObjects", mock.Anything, int64(67), "5").Return([]models.ObjectListing{
		{ID: 10, Published: true},
	}, nil)
	backend.On("ListObjects", mock.Anything, int64(67), "9").Return([]models.ObjectListing{
		{ID: 20, Published: true},
	}, nil)

	// The tour class event starts later than the general event; the output
	// has to be sorted by start, not by discovery order.
	backend.On("FetchObject", mock.Anything, int64(10)).Return(
		detailWithStart("Tour", time.Date(2025, 7, 1, 9, 0, 0, 0, time.Local)), nil)
	backend.On("FetchObject", mock.Anything, int64(20)).Return(
		detailWithStart("Abend", time.Date(2025, 6, 1, 19, 0, 0, 0, time.Local)), nil)

	collector := NewCollector(backend, nil, nil, nil, testConfig())

	result, err := collector.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Equal(t, "Abend", result.Records[0].Titel)
	require.Equal(t, "Tour", result.Records[1].Titel)
	require.Equal(t, 0, result.Skipped)
	backend.AssertExpectations(t)
}

func TestRunRecordsWithoutStartSortFirst(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Probe", mock.Anything).Return(true)
	backend.On("ListObjects", mock.Anything, int64(67), "5").Return([]models.ObjectListing{
		{ID: 10, Published: true},
		{ID: 11, Published: true},
	}, nil)
	backend.On("ListObjects", mock.Anything, int64(67), "9").Return([]models.ObjectListing{}, nil)

	backend.On("FetchObject", mock.Anything, int64(10)).Return(
		detailWithStart("Mit Termin", time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)), nil)
	backend.On("FetchObject", mock.Anything, int64(11)).Return(
		map[string]interface{}{"title": "Ohne Termin"}, nil)

	collector := NewCollector(backend, nil, nil, nil, testConfig())

	result, err := collector.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Equal(t, "Ohne Termin", result.Records[0].Titel)
	require.Equal(t, "Mit Termin", result.Records[1].Titel)
}

func TestRunContinuesWhenOneListingFails(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Probe", mock.Anything).Return(true)
	backend.On("ListObjects", mock.Anything, int64(67), "5").Return(nil, errors.New("boom"))
	backend.On("ListObjects", mock.Anything, int64(67), "9").Return([]models.ObjectListing{
		{ID: 20, Published: true},
	}, nil)
	backend.On("FetchObject", mock.Anything, int64(20)).Return(
		map[string]interface{}{"title": "Abend"}, nil)

	collector := NewCollector(backend, nil, nil, nil, testConfig())

	result, err := collector.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, "Abend", result.Records[0].Titel)
}

func TestRunSkipsFailedFetches(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Probe", mock.Anything).Return(true)
	backend.On("ListObjects", mock.Anything, int64(67), "5").Return([]models.ObjectListing{
		{ID: 10, Published: true},
		{ID: 11, Published: true},
		{ID: 12, Published: true},
	}, nil)
	backend.On("ListObjects", mock.Anything, int64(67), "9").Return([]models.ObjectListing{}, nil)

	backend.On("FetchObject", mock.Anything, int64(10)).Return(
		map[string]interface{}{"title": "Erster"}, nil)
	backend.On("FetchObject", mock.Anything, int64(11)).Return(nil, pimcore.ErrEditLocked)
	backend.On("FetchObject", mock.Anything, int64(12)).Return(nil, errors.New("connection reset"))

	collector := NewCollector(backend, nil, nil, nil, testConfig())

	result, err := collector.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	require.Equal(t, 2, result.Skipped)
}

func TestRunDuplicateIDReportedTwice(t *testing.T) {
	// An object listed in both classes is fetched and emitted twice; the
	// pipeline deliberately does not deduplicate.
	backend := new(MockBackend)
	backend.On("Probe", mock.Anything).Return(true)
	backend.On("ListObjects", mock.Anything, int64(67), "5").Return([]models.ObjectListing{
		{ID: 10, Published: true},
	}, nil)
	backend.On("ListObjects", mock.Anything, int64(67), "9").Return([]models.ObjectListing{
		{ID: 10, Published: true},
	}, nil)
	backend.On("FetchObject", mock.Anything, int64(10)).Return(
		map[string]interface{}{"title": "Doppelt"}, nil).Twice()

	collector := NewCollector(backend, nil, nil, nil, testConfig())

	result, err := collector.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	backend.AssertExpectations(t)
}

func TestRunRespectsCancellation(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Probe", mock.Anything).Return(true)
	backend.On("ListObjects", mock.Anything, int64(67), "5").Return([]models.ObjectListing{
		{ID: 10, Published: true},
		{ID: 11, Published: true},
	}, nil)
	backend.On("ListObjects", mock.Anything, int64(67), "9").Return([]models.ObjectListing{}, nil)
	backend.On("FetchObject", mock.Anything, int64(10)).Return(
		map[string]interface{}{"title": "Erster"}, nil)

	cfg := testConfig()
	cfg.RequestDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	collector := NewCollector(backend, nil, nil, nil, cfg)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := collector.Run(ctx)
	require.Error(t, err)
}

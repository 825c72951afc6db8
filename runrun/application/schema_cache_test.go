package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"runrun-importer/runrun/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSchemaSource conta chamadas e serve respostas fixas por board/campo.
type fakeSchemaSource struct {
	mu sync.Mutex

	fields  map[int64][]domain.FieldDefinition
	options map[string][]domain.Option

	fieldsErr  error
	optionsErr error

	fieldCalls  int
	optionCalls []string
}

func (f *fakeSchemaSource) BoardCustomFields(_ context.Context, boardID int64) ([]domain.FieldDefinition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldCalls++
	if f.fieldsErr != nil {
		return nil, f.fieldsErr
	}
	return f.fields[boardID], nil
}

func (f *fakeSchemaSource) FieldOptions(_ context.Context, fieldID string) ([]domain.Option, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.optionCalls = append(f.optionCalls, fieldID)
	if f.optionsErr != nil {
		return nil, f.optionsErr
	}
	return f.options[fieldID], nil
}

func boardTenSource() *fakeSchemaSource {
	return &fakeSchemaSource{
		fields: map[int64][]domain.FieldDefinition{
			10: {
				{ID: "custom_1", Label: "Prioridade", FieldType: domain.FieldSingleOption},
				{ID: "custom_2", Label: "Horas", FieldType: domain.FieldNumberInteger},
				{ID: "", Label: "sem id", FieldType: domain.FieldTextShort},
				{ID: "custom_3", Label: "Tags", FieldType: domain.FieldMultipleOptions},
			},
		},
		options: map[string][]domain.Option{
			"custom_1": {{ID: "1", Label: "Alta"}, {ID: "2", Label: "Baixa"}},
			"custom_3": {{ID: "7", Label: "Backend"}},
		},
	}
}

func TestSchemaCache_FetchesOnceAndAttachesOptions(t *testing.T) {
	src := boardTenSource()
	cache := NewSchemaCache(src, nil)

	assert.False(t, cache.Cached(10))
	schema, err := cache.Resolve(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, cache.Cached(10))

	require.Len(t, schema, 3)
	assert.Equal(t, []domain.Option{{ID: "1", Label: "Alta"}, {ID: "2", Label: "Baixa"}}, schema["custom_1"].Options)
	assert.Equal(t, []domain.Option{{ID: "7", Label: "Backend"}}, schema["custom_3"].Options)
	assert.Empty(t, schema["custom_2"].Options)
	assert.ElementsMatch(t, []string{"custom_1", "custom_3"}, src.optionCalls)

	again, err := cache.Resolve(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, schema, again)
	assert.Equal(t, 1, src.fieldCalls)
	assert.Len(t, src.optionCalls, 2)
}

func TestSchemaCache_BoardWithoutFieldsIsCachedEmpty(t *testing.T) {
	src := boardTenSource()
	cache := NewSchemaCache(src, nil)

	schema, err := cache.Resolve(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, schema)

	_, err = cache.Resolve(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, 1, src.fieldCalls)
}

func TestSchemaCache_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	src := boardTenSource()
	src.fieldsErr = boom
	cache := NewSchemaCache(src, nil)

	_, err := cache.Resolve(context.Background(), 10)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "board 10")
	assert.False(t, cache.Cached(10))

	src.fieldsErr = nil
	schema, err := cache.Resolve(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, schema, 3)
	assert.Equal(t, 2, src.fieldCalls)
}

func TestSchemaCache_OptionErrorFailsWholeBoard(t *testing.T) {
	src := boardTenSource()
	src.optionsErr = &domain.APIError{Status: 500, Method: "GET", Endpoint: "fields/custom_1/options"}
	cache := NewSchemaCache(src, nil)

	_, err := cache.Resolve(context.Background(), 10)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.False(t, cache.Cached(10))
}

func TestSchemaCache_ConcurrentResolveFetchesOnce(t *testing.T) {
	src := boardTenSource()
	cache := NewSchemaCache(src, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Resolve(context.Background(), 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, src.fieldCalls)
}

func TestSchemaCache_ZeroValueIsUsable(t *testing.T) {
	cache := &SchemaCache{Source: boardTenSource(), Logger: discardLogger()}
	schema, err := cache.Resolve(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, schema, 3)
}

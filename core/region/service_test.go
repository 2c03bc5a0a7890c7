package region_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/region"
	"github.com/sigenerus/sigenerus/tests"
)

func TestService_CreateDaerah(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	_, err := env.Regions.CreateDaerah(ctx, region.NewDaerah{Name: "Jakarta Timur"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   region.NewDaerah
		wantErr error
		isValid bool
	}{
		{name: "blank name", input: region.NewDaerah{Name: "   "}},
		{name: "duplicate", input: region.NewDaerah{Name: " Jakarta Timur "}, wantErr: region.ErrDaerahExists},
		{name: "ok", input: region.NewDaerah{Name: " Bekasi "}, isValid: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := env.Regions.CreateDaerah(ctx, tc.input)
			switch {
			case tc.isValid:
				require.NoError(t, err)
				assert.NotEmpty(t, d.ID)
				assert.Equal(t, "Bekasi", d.Name)
			case tc.wantErr != nil:
				assert.Equal(t, tc.wantErr, err)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestService_CreateKelompok(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	r1 := env.CreateRegion(t, "Daerah A", "Desa A", "Kelompok A")
	r2 := env.CreateRegion(t, "Daerah B", "Desa B", "Kelompok B")

	tests := []struct {
		name      string
		input     region.NewKelompok
		wantErr   error
		wantField string
	}{
		{
			name:    "unknown daerah",
			input:   region.NewKelompok{Name: "K1", DaerahID: "nope", DesaID: r1.Desa.ID},
			wantErr: region.ErrDaerahNotFound,
		},
		{
			name:    "unknown desa",
			input:   region.NewKelompok{Name: "K1", DaerahID: r1.Daerah.ID, DesaID: "nope"},
			wantErr: region.ErrDesaNotFound,
		},
		{
			name:      "desa of another daerah",
			input:     region.NewKelompok{Name: "K1", DaerahID: r1.Daerah.ID, DesaID: r2.Desa.ID},
			wantField: "desaId",
		},
		{
			name:    "duplicate in desa",
			input:   region.NewKelompok{Name: "Kelompok A", DaerahID: r1.Daerah.ID, DesaID: r1.Desa.ID},
			wantErr: region.ErrKelompokExists,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Regions.CreateKelompok(ctx, tc.input)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.Equal(t, tc.wantErr, err)
			}
			if tc.wantField != "" {
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, "want a validation error, got %v", err)
				assert.Equal(t, tc.wantField, verr.Fields[0].Field)
			}
		})
	}

	// same name in another desa is fine
	k, err := env.Regions.CreateKelompok(ctx, region.NewKelompok{Name: "Kelompok A", DaerahID: r2.Daerah.ID, DesaID: r2.Desa.ID})
	require.NoError(t, err)
	assert.Equal(t, "Daerah B", k.DaerahName)
	assert.Equal(t, "Desa B", k.DesaName)
}

func TestService_QueryDesa(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	r := env.CreateRegion(t, "Bogor", "Cibinong", "Pakansari")
	for _, name := range []string{"Citeureup", "Cileungsi", "Gunung Putri"} {
		_, err := env.Regions.CreateDesa(ctx, region.NewDesa{Name: name, DaerahID: r.Daerah.ID})
		require.NoError(t, err)
	}
	other := env.CreateRegion(t, "Depok", "Cimanggis", "Tugu")

	tests := []struct {
		name      string
		filter    region.QueryFilter
		wantNames []string
		wantLen   int
		wantTotal int
	}{
		{name: "all", filter: region.QueryFilter{}, wantLen: 5, wantTotal: 5},
		{name: "search", filter: region.QueryFilter{Search: "CI"}, wantLen: 4, wantTotal: 4},
		{
			name:      "by daerah",
			filter:    region.QueryFilter{DaerahID: other.Daerah.ID},
			wantNames: []string{"Cimanggis"},
			wantLen:   1,
			wantTotal: 1,
		},
		{
			name:      "paginated",
			filter:    region.QueryFilter{DaerahID: r.Daerah.ID, Page: core.Page{Page: 2, Limit: 3}},
			wantLen:   1,
			wantTotal: 4,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			desa, total, err := env.Regions.QueryDesa(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, total)
			assert.Len(t, desa, tc.wantLen)
			if tc.wantNames != nil {
				names := make([]string, len(desa))
				for i, d := range desa {
					names[i] = d.Name
				}
				assert.Equal(t, tc.wantNames, names)
			}
		})
	}
}

func TestService_Delete(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	r := env.CreateRegion(t, "Daerah", "Desa", "Kelompok")

	assert.Equal(t, region.ErrHasChildren, env.Regions.DeleteDaerah(ctx, r.Daerah.ID))
	assert.Equal(t, region.ErrHasChildren, env.Regions.DeleteDesa(ctx, r.Desa.ID))

	jenjang := env.CreateJenjang(t, "Remaja")
	g := env.CreateGenerus(t, "Ahmad", r, jenjang.ID)
	assert.Equal(t, region.ErrHasChildren, env.Regions.DeleteKelompok(ctx, r.Kelompok.ID))

	require.NoError(t, env.Members.Delete(ctx, "generus", g.ID))
	require.NoError(t, env.Regions.DeleteKelompok(ctx, r.Kelompok.ID))
	require.NoError(t, env.Regions.DeleteDesa(ctx, r.Desa.ID))
	require.NoError(t, env.Regions.DeleteDaerah(ctx, r.Daerah.ID))
	assert.Equal(t, region.ErrDaerahNotFound, env.Regions.DeleteDaerah(ctx, r.Daerah.ID))
}

func TestService_Summary(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	r := env.CreateRegion(t, "Daerah", "Desa", "Kelompok 1")
	env.CreateKelompok(t, r, "Kelompok 2")
	env.CreateRegion(t, "Daerah 2", "Desa 2", "Kelompok 3")

	sum, err := env.Regions.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, region.Summary{Daerah: 2, Desa: 2, Kelompok: 3}, sum)
}

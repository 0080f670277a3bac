//nolint:whitespace //can't make both the linter and editor happy :(
package driver

import (
	"context"

	"github.com/stephenafamo/scan"
	"github.com/stephenafamo/scan/stdscan"

	"github.com/mpapenbr/f1-driverstats-go/pkg/model"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository"
)

type profileRow struct {
	FullName            string `db:"full_name"`
	NationalityFlagCode string `db:"nationality_flag_code"`
	SocialMediaHandle   string `db:"social_media_handle"`
}

// Upsert creates or updates the profile. Returns number of affected rows.
func Upsert(
	ctx context.Context,
	conn repository.Querier,
	p *model.DriverProfile,
) (int, error) {
	cmdTag, err := conn.Exec(ctx, `insert into driver_profile
(full_name, nationality_flag_code, social_media_handle) values ($1,$2,$3)
on conflict (full_name) do update set
nationality_flag_code=excluded.nationality_flag_code,
social_media_handle=excluded.social_media_handle`,
		p.FullName, p.NationalityFlagCode, p.SocialMediaHandle)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func DeleteAll(ctx context.Context, conn repository.Querier) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from driver_profile")
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

// LoadAll returns all profiles ordered by name.
func LoadAll(ctx context.Context, db stdscan.Queryer) ([]model.DriverProfile, error) {
	rows, err := stdscan.All(ctx, db, scan.StructMapper[profileRow](),
		`select full_name, nationality_flag_code, social_media_handle
from driver_profile order by full_name`)
	if err != nil {
		return nil, err
	}
	ret := make([]model.DriverProfile, len(rows))
	for i, r := range rows {
		ret[i] = model.DriverProfile(r)
	}
	return ret, nil
}

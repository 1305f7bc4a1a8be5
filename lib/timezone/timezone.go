package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
}

// force the storefront region's timezone so date stamps in the sheet
// don't shift depending on where the job happens to run
func Now() time.Time {
	return time.Now().In(Location)
}

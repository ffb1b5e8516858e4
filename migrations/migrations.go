// README: Schema migrations, applied in file-name order by `ridebook migrate`.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

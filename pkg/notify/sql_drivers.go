package notify

import (
	// Register database/sql drivers used by the sql publisher.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

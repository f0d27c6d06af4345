package store

// Column types are chosen so the same DDL is valid on Postgres and SQLite.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS chair (
		id          BIGINT PRIMARY KEY,
		name        VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		thumbnail   VARCHAR(128) NOT NULL,
		price       BIGINT NOT NULL,
		height      BIGINT NOT NULL,
		width       BIGINT NOT NULL,
		depth       BIGINT NOT NULL,
		color       VARCHAR(64) NOT NULL,
		features    TEXT NOT NULL,
		kind        VARCHAR(64) NOT NULL,
		popularity  BIGINT NOT NULL,
		stock       BIGINT NOT NULL CHECK (stock >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS estate (
		id          BIGINT PRIMARY KEY,
		name        VARCHAR(64) NOT NULL,
		description TEXT NOT NULL,
		thumbnail   VARCHAR(128) NOT NULL,
		address     VARCHAR(128) NOT NULL,
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		rent        BIGINT NOT NULL,
		door_height BIGINT NOT NULL,
		door_width  BIGINT NOT NULL,
		features    TEXT NOT NULL,
		popularity  BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chair_price ON chair (price, id)`,
	`CREATE INDEX IF NOT EXISTS idx_chair_popularity ON chair (popularity DESC, id)`,
	`CREATE INDEX IF NOT EXISTS idx_estate_rent ON estate (rent, id)`,
	`CREATE INDEX IF NOT EXISTS idx_estate_popularity ON estate (popularity DESC, id)`,
	`CREATE INDEX IF NOT EXISTS idx_estate_lat_lon ON estate (latitude, longitude)`,
	`CREATE INDEX IF NOT EXISTS idx_estate_door ON estate (door_width, door_height)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS chair`,
	`DROP TABLE IF EXISTS estate`,
}

var chairColumns = []string{
	"id", "name", "description", "thumbnail", "price", "height", "width", "depth",
	"color", "features", "kind", "popularity", "stock",
}

var estateColumns = []string{
	"id", "name", "description", "thumbnail", "address", "latitude", "longitude",
	"rent", "door_height", "door_width", "features", "popularity",
}

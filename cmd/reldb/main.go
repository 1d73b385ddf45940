package main

import (
	"flag"
	"os"
	"path"

	"github.com/tobsdb/reldb/internal/auth"
	"github.com/tobsdb/reldb/internal/conn"
	"github.com/tobsdb/reldb/pkg"
)

func main() {
	cwd, _ := os.Getwd()

	store_path := flag.String("store", path.Join(cwd, "store"), "directory to save table snapshots")
	in_mem := flag.Bool("m", false, "don't persist tables")
	port := flag.Int("port", 7085, "listening port")
	write_interval := flag.Int("w", 1000, "interval between snapshot writes in ms")
	log_level := flag.String("log", "error", "log level: none, error, info, debug")
	username := flag.String("u", os.Getenv("RELDB_USER"), "username; defaults to $RELDB_USER")
	password := flag.String("p", os.Getenv("RELDB_PASS"), "password; defaults to $RELDB_PASS")

	flag.Parse()

	if *username == "" {
		pkg.FatalLog("Must provide a username with -u or $RELDB_USER")
	}

	user, err := auth.NewUser(*username, *password, auth.UserRoleAdmin)
	if err != nil {
		pkg.FatalLog(err)
	}

	write_settings := conn.NewWriteSettings(*store_path, *in_mem, *write_interval)
	db, err := conn.NewRelDB(auth.Users{user}, write_settings, conn.LogOptions{Level: pkg.ParseLogLevel(*log_level)})
	if err != nil {
		pkg.FatalLog(err)
	}
	db.Listen(*port)
}

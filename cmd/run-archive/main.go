package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"geo-pma/internal/feature"
	"geo-pma/internal/migrate"
	"geo-pma/internal/pmafile"
	"geo-pma/internal/store"
	"geo-pma/internal/utils"
)

func printHelp() {
	fmt.Println("commands:")
	fmt.Println("  runs [limit]")
	fmt.Println("  latest")
	fmt.Println("  kinds <run>")
	fmt.Println("  lines <run> <kind> [limit]")
	fmt.Println("  export <run> [dir]")
	fmt.Println("  prune <keep>")
	fmt.Println("  help")
	fmt.Println("  exit")
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	s, _ := r.ReadString('\n')
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func parseRun(ctx context.Context, st *store.Store, s string) (int64, error) {
	if s == "latest" {
		return st.LatestRun(ctx)
	}
	return strconv.ParseInt(s, 10, 64)
}

// export：按归档行重新写出 PMA 文件（经同一转码写出器）
func export(ctx context.Context, st *store.Store, run int64, dir string) error {
	kinds, err := st.Kinds(ctx, run)
	if err != nil {
		return err
	}
	if len(kinds) == 0 {
		return store.ErrRunNotFound
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	w := pmafile.NewWriter(dir, pmafile.StrictPolicy())
	for _, kc := range kinds {
		lines, err := st.Lines(ctx, run, kc.Kind)
		if err != nil {
			return err
		}
		rep, err := w.WriteLines(kc.Kind, lines)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d lines, %d substitutions\n", rep.Path, rep.Lines, rep.Substitutions)
	}
	return nil
}

func main() {
	var envFile string
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "--env" && i+1 < len(os.Args) {
			envFile = os.Args[i+1]
			i++
		} else if strings.HasSuffix(os.Args[i], ".env") {
			envFile = os.Args[i]
		}
	}
	var st *store.Store
	if envFile != "" {
		_ = godotenv.Load(envFile)
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			fmt.Println("db error:", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
	} else {
		r := bufio.NewReader(os.Stdin)
		fmt.Println("输入数据库连接参数，回车使用默认值")
		host := prompt(r, "PG_HOST", "127.0.0.1")
		port := prompt(r, "PG_PORT", "5432")
		user := prompt(r, "PG_USER", "postgres")
		pass := prompt(r, "PG_PASSWORD", "")
		name := prompt(r, "PG_DB", "geopma")
		ssl := prompt(r, "PG_SSLMODE", "disable")
		dsn := "postgres://" + user
		if pass != "" {
			dsn += ":" + pass
		}
		dsn += "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
		db, err := utils.OpenPostgres(dsn)
		if err != nil {
			fmt.Println("db error:", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
	}
	defer st.Close()
	if err := migrate.EnsureSchema(st.DB()); err != nil {
		fmt.Println("schema error:", err)
		os.Exit(1)
	}
	ctx := context.Background()
	fmt.Println("run archive cli ready")
	printHelp()
	in := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !in.Scan() {
			break
		}
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		switch cmd {
		case "exit", "quit":
			return
		case "help":
			printHelp()
		case "runs":
			limit := 20
			if len(parts) >= 2 {
				if n, e := strconv.Atoi(parts[1]); e == nil && n > 0 {
					limit = n
				}
			}
			runs, err := st.ListRuns(ctx, limit)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, r := range runs {
				fin := "-"
				if r.FinishedAt != nil {
					fin = r.FinishedAt.Format(time.RFC3339)
				}
				fmt.Printf("%d | %s | %s | %s | %d lines\n", r.ID, r.StartedAt.Format(time.RFC3339), fin, r.Status, r.Lines)
			}
		case "latest":
			id, err := st.LatestRun(ctx)
			if err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println(id)
			}
		case "kinds":
			if len(parts) < 2 {
				fmt.Println("usage: kinds <run>")
				continue
			}
			run, err := parseRun(ctx, st, parts[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			kinds, err := st.Kinds(ctx, run)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if len(kinds) == 0 {
				fmt.Println("none")
			}
			for _, kc := range kinds {
				fmt.Printf("%s -> %s (%d)\n", kc.Kind, pmafile.FileName(kc.Kind), kc.Lines)
			}
		case "lines":
			if len(parts) < 3 {
				fmt.Println("usage: lines <run> <kind> [limit]")
				continue
			}
			run, err := parseRun(ctx, st, parts[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			k, ok := feature.ParseKind(parts[2])
			if !ok {
				fmt.Println("error: unknown kind", parts[2])
				continue
			}
			xs, err := st.Lines(ctx, run, k)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if len(parts) >= 4 {
				if n, e := strconv.Atoi(parts[3]); e == nil && n >= 0 && n < len(xs) {
					xs = xs[:n]
				}
			}
			for _, s := range xs {
				fmt.Print(s)
			}
		case "export":
			if len(parts) < 2 {
				fmt.Println("usage: export <run> [dir]")
				continue
			}
			run, err := parseRun(ctx, st, parts[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			dir := ""
			if len(parts) >= 3 {
				dir = parts[2]
			}
			if err := export(ctx, st, run, dir); err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("ok")
			}
		case "prune":
			if len(parts) < 2 {
				fmt.Println("usage: prune <keep>")
				continue
			}
			keep, _ := strconv.Atoi(parts[1])
			n, err := st.PruneRuns(ctx, keep)
			if err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Printf("ok (%d deleted)\n", n)
			}
		default:
			fmt.Println("unknown command")
		}
	}
}

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func daysAgo(d int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -d)
}

func randBetween(min, max int) int {
	return min + rand.Intn(max-min+1)
}

func pick[T any](items []T) T {
	return items[rand.Intn(len(items))]
}

func must(err error, msg string) {
	if err != nil {
		log.Fatalf("%s: %v", msg, err)
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// ── master data ──────────────────────────────────────────────────────────────

type prefecture struct {
	code   int
	name   string
	region string
}

var prefectures = []prefecture{
	{13, "Tokyo", "Kanto"},
	{14, "Kanagawa", "Kanto"},
	{27, "Osaka", "Kinki"},
	{23, "Aichi", "Chubu"},
	{40, "Fukuoka", "Kyushu"},
}

type city struct {
	code     int
	prefCD   int
	name     string
	lat, lng float64
	adjacent []int
}

var cities = []city{
	{131016, 13, "Shinjuku", 35.6938, 139.7034, []int{131017, 131018}},
	{131017, 13, "Shibuya", 35.6580, 139.7016, []int{131016, 131019}},
	{131018, 13, "Minato", 35.6581, 139.7514, []int{131016}},
	{131019, 13, "Setagaya", 35.6464, 139.6532, []int{131017}},
	{141003, 14, "Yokohama", 35.4437, 139.6380, []int{141004}},
	{141004, 14, "Kawasaki", 35.5308, 139.7029, []int{141003}},
	{271004, 27, "Osaka", 34.6937, 135.5023, []int{271005}},
	{271005, 27, "Sakai", 34.5733, 135.4830, []int{271004}},
	{231002, 23, "Nagoya", 35.1815, 136.9066, nil},
	{401001, 40, "Fukuoka", 33.5904, 130.4017, nil},
}

type occupation struct {
	code int
	name string
}

var occupations = []occupation{
	{1001, "Food Service"},
	{1002, "Retail"},
	{1003, "Warehouse/Logistics"},
	{1004, "Office Work"},
	{1005, "Driving/Delivery"},
	{1006, "IT/Engineer"},
	{1007, "Event Staff"},
	{1008, "Call Center"},
}

type employmentType struct {
	code int
	name string
}

var employmentTypes = []employmentType{
	{1, "Arubaito"},
	{3, "Part-time"},
	{6, "Contract"},
	{8, "Outsourced"},
	{2, "Full-time"},
	{9, "Internship"},
}

type feature struct {
	code, name string
}

var features = []feature{
	{"D01", "Daily Payment"},
	{"W01", "Weekly Payment"},
	{"N01", "No Experience Required"},
	{"S01", "Student Welcome"},
	{"R01", "Remote Work"},
	{"T01", "Transportation Provided"},
}

type keyword struct {
	keyword      string
	searchVolume int
	difficulty   float64
	category     string
}

var keywords = []keyword{
	{"コンビニ バイト", 40000, 0.35, "retail"},
	{"日払い バイト", 28000, 0.42, "daily_payment"},
	{"高収入 求人", 19000, 0.55, "high_income"},
	{"短期 バイト", 15000, 0.30, "short_term"},
	{"在宅 ワーク", 22000, 0.48, "remote"},
	{"倉庫 軽作業", 9000, 0.25, "warehouse"},
}

// ── seed job rows (written to the day's CSV, not inserted directly) ─────────

type seedJob struct {
	jobID            int64
	endclCD          string
	companyName      string
	title            string
	prefCD, cityCD   int
	station          string
	occCD1           int
	employmentTypeCD int
	fee              int
	minSalary        int
	maxSalary        int
	salaryType       string
	featureCodes     string
	postingDaysAgo   int
}

func buildSeedJobs() []seedJob {
	companies := []string{"QuickMart", "Sakura Logistics", "Tokyo Diner Group", "Bright Call Center", "Metro Delivery"}
	titles := []string{"Convenience Store Staff", "Warehouse Picker", "Kitchen Staff", "Customer Support Rep", "Delivery Driver", "Event Setup Crew"}

	jobs := make([]seedJob, 0, 60)
	var jobID int64 = 900001
	for i := 0; i < 60; i++ {
		c := pick(cities)
		occ := pick(occupations)
		emp := pick([]int{1, 3, 6, 8})
		minSalary := randBetween(1000, 1800)
		maxSalary := minSalary + randBetween(50, 400)

		var featureCodes string
		switch i % 4 {
		case 0:
			featureCodes = jobmodelFeature("D01", "N01")
		case 1:
			featureCodes = jobmodelFeature("W01", "S01")
		case 2:
			featureCodes = jobmodelFeature("R01", "T01")
		default:
			featureCodes = jobmodelFeature("N01")
		}

		jobs = append(jobs, seedJob{
			jobID:            jobID,
			endclCD:          fmt.Sprintf("EC%04d", 100+i%15),
			companyName:      pick(companies),
			title:            pick(titles),
			prefCD:           c.prefCD,
			cityCD:           c.code,
			station:          fmt.Sprintf("%s Station", c.name),
			occCD1:           occ.code,
			employmentTypeCD: emp,
			fee:              randBetween(800, 3000),
			minSalary:        minSalary,
			maxSalary:        maxSalary,
			salaryType:       "hourly",
			featureCodes:     featureCodes,
			postingDaysAgo:   randBetween(0, 20),
		})
		jobID++
	}
	return jobs
}

func jobmodelFeature(codes ...string) string {
	out := ""
	for i, c := range codes {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}

// ── main ─────────────────────────────────────────────────────────────────────

func main() {
	_ = godotenv.Load()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_USER", "matchday"),
		envOr("DB_PASSWORD", "matchday"),
		envOr("DB_NAME", "matchday"),
		envOr("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping: %v", err)
	}
	fmt.Println("connected to database")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	// ── master tables ────────────────────────────────────────────────────
	for _, p := range prefectures {
		_, err = tx.Exec(ctx,
			`INSERT INTO master_prefectures (code, name, region) VALUES ($1, $2, $3)
			 ON CONFLICT (code) DO NOTHING`,
			p.code, p.name, p.region,
		)
		must(err, "seed prefecture "+p.name)
	}
	fmt.Printf("seeded %d prefectures\n", len(prefectures))

	for _, c := range cities {
		_, err = tx.Exec(ctx,
			`INSERT INTO master_cities (code, pref_cd, lat, lng, adjacent_city_codes) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (code) DO NOTHING`,
			c.code, c.prefCD, c.lat, c.lng, c.adjacent,
		)
		must(err, "seed city "+c.name)
	}
	fmt.Printf("seeded %d cities\n", len(cities))

	for _, o := range occupations {
		_, err = tx.Exec(ctx,
			`INSERT INTO master_occupations (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
			o.code, o.name,
		)
		must(err, "seed occupation "+o.name)
	}
	fmt.Printf("seeded %d occupations\n", len(occupations))

	for _, e := range employmentTypes {
		_, err = tx.Exec(ctx,
			`INSERT INTO master_employment_types (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
			e.code, e.name,
		)
		must(err, "seed employment type "+e.name)
	}
	fmt.Printf("seeded %d employment types\n", len(employmentTypes))

	for _, f := range features {
		_, err = tx.Exec(ctx,
			`INSERT INTO master_features (code, name) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`,
			f.code, f.name,
		)
		must(err, "seed feature "+f.name)
	}
	fmt.Printf("seeded %d features\n", len(features))

	for _, k := range keywords {
		_, err = tx.Exec(ctx,
			`INSERT INTO master_keywords (keyword, search_volume, difficulty, category) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (keyword) DO NOTHING`,
			k.keyword, k.searchVolume, k.difficulty, k.category,
		)
		must(err, "seed keyword "+k.keyword)
	}
	fmt.Printf("seeded %d keywords\n", len(keywords))

	// ── users ────────────────────────────────────────────────────────────
	const userCount = 200
	userIDs := make([]int32, 0, userCount)
	for i := 0; i < userCount; i++ {
		c := pick(cities)
		isActive := rand.Float64() > 0.05
		subscribed := rand.Float64() > 0.1

		var userID int32
		err = tx.QueryRow(ctx,
			`INSERT INTO users (contact, pref_cd, city_cd, is_active, subscribed, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6) RETURNING user_id`,
			fmt.Sprintf("user-%04d@example.jp", i), c.prefCD, c.code, isActive, subscribed, daysAgo(randBetween(30, 400)),
		).Scan(&userID)
		must(err, "seed user")
		userIDs = append(userIDs, userID)
	}
	fmt.Printf("seeded %d users\n", len(userIDs))

	// ── user actions (views/clicks/applications against the seed jobs) ──
	jobs := buildSeedJobs()
	actionTypes := []string{"view", "view", "view", "click", "click", "apply", "favorite"}

	actionCount := 0
	for _, uid := range userIDs {
		n := randBetween(2, 15)
		for i := 0; i < n; i++ {
			j := pick(jobs)
			actionType := pick(actionTypes)
			_, err = tx.Exec(ctx,
				`INSERT INTO user_actions (user_id, job_id, endcl_cd, action_type, action_timestamp)
				 VALUES ($1, $2, $3, $4, $5)`,
				uid, j.jobID, j.endclCD, actionType, daysAgo(randBetween(0, 175)),
			)
			must(err, "seed user action")
			actionCount++
		}
	}
	fmt.Printf("seeded %d user actions\n", actionCount)

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit: %v", err)
	}

	// ── today's job CSV (§6.1), the ingest stage's input ─────────────────
	batchDate := time.Now().UTC()
	outDir := envOr("JOB_CSV_DIR", "./data")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("mkdir %s: %v", outDir, err)
	}
	csvPath := filepath.Join(outDir, fmt.Sprintf("jobs_%s.csv", batchDate.Format("2006-01-02")))
	if err := writeJobsCSV(csvPath, jobs, batchDate); err != nil {
		log.Fatalf("write csv: %v", err)
	}
	fmt.Printf("wrote %d job rows to %s\n", len(jobs), csvPath)

	fmt.Println("\nseed completed successfully")
}

func writeJobsCSV(path string, jobs []seedJob, batchDate time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"job_id", "endcl_cd", "company_name", "application_name", "pref_cd", "city_cd",
		"station_name_eki", "occupation_cd1", "occupation_cd2", "employment_type_cd",
		"fee", "hours", "work_days", "description", "benefits",
		"min_salary", "max_salary", "salary_type", "salary_raw",
		"feature_codes", "posting_date", "end_at", "latitude", "longitude",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, j := range jobs {
		postingDate := batchDate.AddDate(0, 0, -j.postingDaysAgo).Format("2006-01-02")
		row := []string{
			strconv.FormatInt(j.jobID, 10),
			j.endclCD,
			j.companyName,
			j.title,
			strconv.Itoa(j.prefCD),
			strconv.Itoa(j.cityCD),
			j.station,
			strconv.Itoa(j.occCD1),
			"",
			strconv.Itoa(j.employmentTypeCD),
			strconv.Itoa(j.fee),
			"9:00-18:00",
			"Mon-Fri",
			"",
			"",
			strconv.Itoa(j.minSalary),
			strconv.Itoa(j.maxSalary),
			j.salaryType,
			"",
			j.featureCodes,
			postingDate,
			"",
			"",
			"",
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// Command adoptly is a CLI client for the pet adoption service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/adoptly/adoptly/internal/api"
	"github.com/adoptly/adoptly/internal/model"
	"github.com/adoptly/adoptly/internal/statefile"
	"github.com/adoptly/adoptly/internal/store"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app bundles the stores behind the subcommands.
type app struct {
	auth *store.Auth
	pets *store.Pets
	apps *store.Applications
	ui   *store.UI
}

func newApp(baseURL string, verbose bool) (*app, error) {
	log := zap.NewNop()
	if verbose {
		log, _ = zap.NewDevelopment()
	}

	state := statefile.Default()

	var auth *store.Auth
	client, err := api.New(api.Config{
		BaseURL: baseURL,
		Tokens:  state,
		OnSessionExpired: func() {
			if auth != nil {
				auth.DropSession()
			}
			fmt.Fprintln(os.Stderr, "session expired, please login again")
		},
	})
	if err != nil {
		return nil, err
	}

	auth = store.NewAuth(client, state, log)
	auth.Init()
	ui := store.NewUI(state)
	ui.Init()

	return &app{
		auth: auth,
		pets: store.NewPets(client, log),
		apps: store.NewApplications(client, log),
		ui:   ui,
	}, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `adoptly CLI
Usage:
  adoptly [-addr URL] [-v] <cmd> [args]

Commands:
  version
  signup    -email E -password P -name N [-phone -address]
  login     -email E -password P
  logout
  whoami
  refresh

  pets      [-page N] [-search S] [-species S] [-breed B] [-age A]
  pet       -id ID
  featured
  pet-add   -name N -species S [-breed -age -size -gender -description -photo FILE -featured]
  pet-edit  -id ID [same flags as pet-add; only provided ones change]
  pet-rm    -id ID

  apply     -pet ID [-message M]
  applications [-all]
  approve   -id ID [-notes N]
  reject    -id ID [-notes N]
  withdraw  -id ID

  theme
  sidebar
`)
	os.Exit(2)
}

// main dispatches subcommands against the shared stores.
func main() {
	addr := flag.String("addr", "http://localhost:8080", "server base URL")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	if cmd == "version" {
		fmt.Printf("adoptly %s (%s)\n", version, buildDate)
		return
	}

	a, err := newApp(*addr, *verbose)
	if err != nil {
		fail(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "signup":
		fs := flag.NewFlagSet("signup", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		name := fs.String("name", "", "full name")
		phone := fs.String("phone", "", "phone")
		address := fs.String("address", "", "address")
		_ = fs.Parse(args)

		check(a.auth.Signup(ctx, *email, *password, *name, *phone, *address))
		who, _ := a.auth.CurrentUser()
		fmt.Printf("signed up as %s (%s)\n", who.Name, who.Email)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		check(a.auth.Login(ctx, *email, *password))
		who, _ := a.auth.CurrentUser()
		fmt.Printf("logged in as %s (%s)\n", who.Name, string(who.Role))

	case "logout":
		check(a.auth.Logout(ctx))
		fmt.Println("logged out")

	case "whoami":
		user, res := a.auth.Profile(ctx)
		check(res)
		printJSON(user)

	case "refresh":
		check(a.auth.Refresh(ctx))
		fmt.Println("session refreshed")

	case "pets":
		fs := flag.NewFlagSet("pets", flag.ExitOnError)
		page := fs.Int("page", 1, "page number")
		search := fs.String("search", "", "search text")
		species := fs.String("species", "", "species filter")
		breed := fs.String("breed", "", "breed filter")
		age := fs.String("age", "", "age filter")
		_ = fs.Parse(args)

		f := model.Filters{Search: *search, Species: *species, Breed: *breed, Age: *age}
		if f.IsZero() {
			check(a.pets.Fetch(ctx, *page))
		} else {
			check(a.pets.ApplyFilters(ctx, f))
			if *page > 1 {
				check(a.pets.GoToPage(ctx, *page))
			}
		}
		cur, total := a.pets.Page()
		fmt.Printf("page %d of %d (%d pets)\n", cur, total, a.pets.TotalCount())
		printJSON(a.pets.List())

	case "pet":
		fs := flag.NewFlagSet("pet", flag.ExitOnError)
		id := fs.String("id", "", "pet id")
		_ = fs.Parse(args)

		check(a.pets.FetchByID(ctx, *id))
		pet, _ := a.pets.Selected()
		printJSON(pet)

	case "featured":
		check(a.pets.FetchFeatured(ctx))
		printJSON(a.pets.Featured())

	case "pet-add":
		fs := flag.NewFlagSet("pet-add", flag.ExitOnError)
		pet, photoFile := petFlags(fs)
		_ = fs.Parse(args)

		if *photoFile != "" {
			attachPhoto(pet, *photoFile)
		}
		created, res := a.pets.Add(ctx, *pet)
		check(res)
		printJSON(created)

	case "pet-edit":
		fs := flag.NewFlagSet("pet-edit", flag.ExitOnError)
		id := fs.String("id", "", "pet id")
		pet, photoFile := petFlags(fs)
		_ = fs.Parse(args)

		if *photoFile != "" {
			attachPhoto(pet, *photoFile)
		}
		patch := patchFromFlags(fs, pet)
		updated, res := a.pets.Patch(ctx, *id, patch)
		check(res)
		printJSON(updated)

	case "pet-rm":
		fs := flag.NewFlagSet("pet-rm", flag.ExitOnError)
		id := fs.String("id", "", "pet id")
		_ = fs.Parse(args)

		check(a.pets.Delete(ctx, *id))
		fmt.Println("deleted")

	case "apply":
		fs := flag.NewFlagSet("apply", flag.ExitOnError)
		petID := fs.String("pet", "", "pet id")
		message := fs.String("message", "", "message to the shelter")
		_ = fs.Parse(args)

		app, res := a.apps.Apply(ctx, *petID, *message)
		check(res)
		printJSON(app)

	case "applications":
		fs := flag.NewFlagSet("applications", flag.ExitOnError)
		all := fs.Bool("all", false, "list every application (admin)")
		_ = fs.Parse(args)

		if *all {
			check(a.apps.RefreshAll(ctx))
			printJSON(a.apps.All())
		} else {
			check(a.apps.RefreshMine(ctx))
			printJSON(a.apps.Mine())
		}

	case "approve", "reject":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.String("id", "", "application id")
		notes := fs.String("notes", "", "reviewer notes")
		_ = fs.Parse(args)

		if cmd == "approve" {
			check(a.apps.Approve(ctx, *id, *notes))
		} else {
			check(a.apps.Reject(ctx, *id, *notes))
		}
		fmt.Println("done")

	case "withdraw":
		fs := flag.NewFlagSet("withdraw", flag.ExitOnError)
		id := fs.String("id", "", "application id")
		_ = fs.Parse(args)

		check(a.apps.Withdraw(ctx, *id))
		fmt.Println("withdrawn")

	case "theme":
		if a.ui.ToggleDarkMode() {
			fmt.Println("dark")
		} else {
			fmt.Println("light")
		}

	case "sidebar":
		if a.ui.ToggleSidebar() {
			fmt.Println("open")
		} else {
			fmt.Println("collapsed")
		}

	default:
		usage()
	}
}

// petFlags registers the shared pet field flags and returns the bound struct.
func petFlags(fs *flag.FlagSet) (*model.Pet, *string) {
	p := &model.Pet{}
	fs.StringVar(&p.Name, "name", "", "pet name")
	fs.StringVar(&p.Species, "species", "", "species")
	fs.StringVar(&p.Breed, "breed", "", "breed")
	fs.StringVar(&p.Age, "age", "", "age bucket (baby/young/adult/senior)")
	fs.StringVar(&p.Size, "size", "", "size")
	fs.StringVar(&p.Gender, "gender", "", "gender")
	fs.StringVar(&p.Description, "description", "", "description")
	fs.StringVar((*string)(&p.Status), "status", "", "availability status")
	fs.BoolVar(&p.IsFeatured, "featured", false, "feature on the home page")
	photoFile := fs.String("photo", "", "photo file path")
	return p, photoFile
}

// patchFromFlags turns only the flags the user actually set into a PetPatch.
func patchFromFlags(fs *flag.FlagSet, p *model.Pet) model.PetPatch {
	var patch model.PetPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = &p.Name
		case "breed":
			patch.Breed = &p.Breed
		case "age":
			patch.Age = &p.Age
		case "size":
			patch.Size = &p.Size
		case "gender":
			patch.Gender = &p.Gender
		case "status":
			patch.Status = &p.Status
		case "description":
			patch.Description = &p.Description
		case "photo":
			patch.Photo = &p.Photo
		case "featured":
			patch.IsFeatured = &p.IsFeatured
		}
	})
	return patch
}

func attachPhoto(p *model.Pet, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fail(err.Error())
	}
	encoded, err := store.EncodePhoto(data)
	if err != nil {
		fail(err.Error())
	}
	p.Photo = encoded
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func check(res store.Result) {
	if !res.OK {
		fail(res.Err)
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

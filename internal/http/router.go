package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Attendance    *AttendanceHandler
	Calendar      *CalendarHandler
	Analysis      *AnalysisHandler
	CSV           *CSVHandler
	Groups        *GroupHandler
	EmployeeTypes *EmployeeTypeHandler
	Locations     *LocationHandler
	Users         *UserHandler
	Holidays      *HolidayHandler
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Auth != nil {
		mux.HandleFunc("/auth/login", requireMethod(http.MethodGet, cfg.Auth.LoginPage))
		mux.HandleFunc("/auth/login/admin", requireMethod(http.MethodGet, cfg.Auth.AdminLoginPage))
		mux.HandleFunc("/auth/redirect", requireMethod(http.MethodGet, cfg.Auth.Redirect))
		mux.HandleFunc("/auth/callback", requireMethod(http.MethodGet, cfg.Auth.Callback))
		mux.HandleFunc("/auth/local", requireMethod(http.MethodPost, cfg.Auth.LocalLogin))
		mux.HandleFunc("/auth/logout", requireMethod(http.MethodPost, cfg.Auth.Logout))
		mux.HandleFunc("/auth/settings", requireMethod(http.MethodGet, cfg.Auth.Settings))
		mux.HandleFunc("/auth/settings/oidc/toggle", requireMethod(http.MethodPost, cfg.Auth.ToggleOIDC))
	}

	if cfg.Attendance != nil {
		mux.HandleFunc("/api/attendance", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Attendance.Create(w, r)
		})
		mux.HandleFunc("/api/attendance/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/api/attendance/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}
			if userID, ok := strings.CutPrefix(rest, "user/"); ok {
				if userID == "" {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Attendance.ListForUser(w, r.WithContext(ContextWithPathID(r.Context(), userID)))
				return
			}
			r = r.WithContext(ContextWithPathID(r.Context(), rest))
			switch r.Method {
			case http.MethodPut:
				cfg.Attendance.Update(w, r)
			case http.MethodDelete:
				cfg.Attendance.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Calendar != nil {
		mux.HandleFunc("/api/calendar", requireMethod(http.MethodGet, cfg.Calendar.Month))
		mux.HandleFunc("/api/calendar/week", requireMethod(http.MethodGet, cfg.Calendar.Week))
		mux.HandleFunc("/api/day/", func(w http.ResponseWriter, r *http.Request) {
			date := strings.TrimPrefix(r.URL.Path, "/api/day/")
			if date == "" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Calendar.Day(w, r.WithContext(ContextWithPathID(r.Context(), date)))
		})
	}

	if cfg.Analysis != nil {
		mux.HandleFunc("/api/analysis", requireMethod(http.MethodGet, cfg.Analysis.Analyze))
	}

	if cfg.CSV != nil {
		mux.HandleFunc("/api/csv/download", requireMethod(http.MethodGet, cfg.CSV.Download))
		mux.HandleFunc("/api/csv/months", requireMethod(http.MethodGet, cfg.CSV.Months))
	}

	if cfg.Groups != nil {
		mux.HandleFunc("/api/groups", listCreate(cfg.Groups.List, cfg.Groups.Create))
		mux.HandleFunc("/api/groups/", updateDelete("/api/groups/", cfg.Groups.Update, cfg.Groups.Delete))
	}

	if cfg.EmployeeTypes != nil {
		mux.HandleFunc("/api/employee-types", listCreate(cfg.EmployeeTypes.List, cfg.EmployeeTypes.Create))
		mux.HandleFunc("/api/employee-types/", updateDelete("/api/employee-types/", cfg.EmployeeTypes.Update, cfg.EmployeeTypes.Delete))
	}

	if cfg.Locations != nil {
		mux.HandleFunc("/api/locations", listCreate(cfg.Locations.List, cfg.Locations.Create))
		mux.HandleFunc("/api/locations/", updateDelete("/api/locations/", cfg.Locations.Update, cfg.Locations.Delete))
	}

	if cfg.Users != nil || cfg.Calendar != nil {
		if cfg.Users != nil {
			mux.HandleFunc("/api/users", listCreate(cfg.Users.List, cfg.Users.Create))
		}
		mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
			if rest == "" {
				http.NotFound(w, r)
				return
			}
			if userID, ok := strings.CutSuffix(rest, "/month"); ok {
				if userID == "" || cfg.Calendar == nil {
					http.NotFound(w, r)
					return
				}
				if r.Method != http.MethodGet {
					methodNotAllowed(w, http.MethodGet)
					return
				}
				cfg.Calendar.UserMonth(w, r.WithContext(ContextWithPathID(r.Context(), userID)))
				return
			}
			if cfg.Users == nil {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithPathID(r.Context(), rest))
			switch r.Method {
			case http.MethodPut:
				cfg.Users.Update(w, r)
			case http.MethodDelete:
				cfg.Users.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Holidays != nil {
		mux.HandleFunc("/api/holidays", listCreate(cfg.Holidays.List, cfg.Holidays.Create))
		mux.HandleFunc("/api/holidays/fetch", requireMethod(http.MethodPost, cfg.Holidays.Fetch))
		mux.HandleFunc("/api/holidays/", updateDelete("/api/holidays/", cfg.Holidays.Update, cfg.Holidays.Delete))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func requireMethod(method string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			methodNotAllowed(w, method)
			return
		}
		handler(w, r)
	}
}

func listCreate(list, create http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			list(w, r)
		case http.MethodPost:
			create(w, r)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	}
}

func updateDelete(prefix string, update, del http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" {
			http.NotFound(w, r)
			return
		}
		r = r.WithContext(ContextWithPathID(r.Context(), id))
		switch r.Method {
		case http.MethodPut:
			update(w, r)
		case http.MethodDelete:
			del(w, r)
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

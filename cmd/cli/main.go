package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "room":
		handleRoom(args)
	case "hold":
		handleHold(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: bunkhouse auth <login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "login":
		loginOperator(args[1:])
	case "logout":
		logoutOperator()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func handleRoom(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: bunkhouse room <list|create|delete|assign|bulk-assign|release|set-status>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listRooms(args[1:])
	case "create":
		createRoom(args[1:])
	case "delete":
		deleteRoom(args[1:])
	case "assign":
		assignRoom(args[1:])
	case "bulk-assign":
		bulkAssign(args[1:])
	case "release":
		releaseBed(args[1:])
	case "set-status":
		setStatus(args[1:])
	default:
		fmt.Printf("unknown room command: %s\n", subCmd)
	}
}

func handleHold(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: bunkhouse hold <list|confirm>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		listHolds(args[1:])
	case "confirm":
		confirmHold(args[1:])
	default:
		fmt.Printf("unknown hold command: %s\n", subCmd)
	}
}

// Auth commands
func loginOperator(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "operator username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]string{"username": *username, "password": *password}
	data, _ := json.Marshal(payload)
	resp, err := http.Post(getAPIURL()+"/login", "application/json", bytes.NewReader(data))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *username)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logoutOperator() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Room commands
func listRooms(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/rooms", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var rooms []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&rooms)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tFLOOR\tCAPACITY\tOCCUPANCY\tSTATUS")
	for _, rm := range rooms {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n",
			rm["id"], rm["roomNumber"], rm["floor"], rm["capacity"], rm["currentOccupancy"], rm["status"])
	}
	w.Flush()
}

func createRoom(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	number := fs.String("number", "", "room number, e.g. 204")
	floor := fs.Int("floor", 1, "floor")
	roomType := fs.String("type", "standard", "room type")
	capacity := fs.Int("capacity", 2, "bed count")

	fs.Parse(args)

	if *number == "" {
		fmt.Println("Error: number is required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"roomNumber": *number,
		"floor":      *floor,
		"type":       *roomType,
		"capacity":   *capacity,
	}
	result, status, err := postJSON("/rooms", payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 201 {
		fmt.Printf("✓ Room created: %v\n", result["id"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func deleteRoom(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: bunkhouse room delete <room-id>")
		return
	}
	req, _ := http.NewRequest("DELETE", getAPIURL()+"/rooms/"+args[0], nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode == 204 || resp.StatusCode == 200 {
		fmt.Println("✓ Room deleted")
	} else {
		var result map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&result)
		fmt.Printf("✗ Delete failed: %v\n", result)
	}
}

func assignRoom(args []string) {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	room := fs.String("room", "", "room id")
	resident := fs.String("resident", "", "resident id")

	fs.Parse(args)

	if *room == "" || *resident == "" {
		fmt.Println("Error: room and resident are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := postJSON("/rooms/"+*room+"/assign", map[string]string{"residentId": *resident})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 200 {
		fmt.Printf("✓ Resident %s assigned to room %v\n", *resident, result["roomNumber"])
	} else {
		fmt.Printf("✗ Assign failed: %v\n", result)
	}
}

func bulkAssign(args []string) {
	fs := flag.NewFlagSet("bulk-assign", flag.ExitOnError)
	rooms := fs.String("rooms", "", "comma-separated room ids")
	resident := fs.String("resident", "", "resident id")
	holdMin := fs.Int("hold", 0, "hold duration in minutes (0 for permanent assignment)")

	fs.Parse(args)

	if *rooms == "" || *resident == "" {
		fmt.Println("Error: rooms and resident are required")
		fs.PrintDefaults()
		return
	}

	payload := map[string]interface{}{
		"roomIds":    strings.Split(*rooms, ","),
		"residentId": *resident,
	}
	if *holdMin > 0 {
		payload["holdMinutes"] = *holdMin
	}
	result, status, err := postJSON("/assignments", payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 200 {
		fmt.Printf("✓ Resident %s assigned to %d room(s)\n", *resident, len(strings.Split(*rooms, ",")))
		if hold, ok := result["hold"].(map[string]interface{}); ok {
			fmt.Printf("  Hold %v expires at %v\n", hold["id"], hold["expiresAt"])
		}
	} else {
		fmt.Printf("✗ Bulk assign failed: %v\n", result)
	}
}

func releaseBed(args []string) {
	fs := flag.NewFlagSet("release", flag.ExitOnError)
	room := fs.String("room", "", "room id")
	bed := fs.String("bed", "", "bed id")

	fs.Parse(args)

	if *room == "" || *bed == "" {
		fmt.Println("Error: room and bed are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := postJSON("/rooms/"+*room+"/beds/"+*bed+"/release", map[string]string{})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 200 {
		fmt.Printf("✓ Bed released, room status: %v\n", result["status"])
	} else {
		fmt.Printf("✗ Release failed: %v\n", result)
	}
}

func setStatus(args []string) {
	fs := flag.NewFlagSet("set-status", flag.ExitOnError)
	room := fs.String("room", "", "room id")
	status := fs.String("status", "", "available, occupied or maintenance")

	fs.Parse(args)

	if *room == "" || *status == "" {
		fmt.Println("Error: room and status are required")
		fs.PrintDefaults()
		return
	}

	data, _ := json.Marshal(map[string]string{"status": *status})
	req, _ := http.NewRequest("PATCH", getAPIURL()+"/rooms/"+*room+"/status", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Room %v status: %v\n", result["roomNumber"], result["status"])
	} else {
		fmt.Printf("✗ Status update failed: %v\n", result)
	}
}

// Hold commands
func listHolds(args []string) {
	_ = args
	req, _ := http.NewRequest("GET", getAPIURL()+"/holds", nil)
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var holds []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&holds)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRESIDENT\tROOMS\tEXPIRES")
	for _, h := range holds {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", h["id"], h["residentId"], h["roomIds"], h["expiresAt"])
	}
	w.Flush()
}

func confirmHold(args []string) {
	fs := flag.NewFlagSet("confirm", flag.ExitOnError)
	hold := fs.String("hold", "", "hold id")
	room := fs.String("room", "", "room id to keep")

	fs.Parse(args)

	if *hold == "" || *room == "" {
		fmt.Println("Error: hold and room are required")
		fs.PrintDefaults()
		return
	}

	result, status, err := postJSON("/holds/"+*hold+"/confirm", map[string]string{"roomId": *room})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if status == 200 {
		fmt.Printf("✓ Hold confirmed, resident keeps room %s\n", *room)
	} else {
		fmt.Printf("✗ Confirm failed: %v\n", result)
	}
}

// Helper functions
func postJSON(path string, payload interface{}) (map[string]interface{}, int, error) {
	data, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", getAPIURL()+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return result, resp.StatusCode, nil
}

func getAPIURL() string {
	if url := os.Getenv("BUNKHOUSE_API"); url != "" {
		return url
	}
	return "http://localhost:8080/api"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.bunkhouse/token"
}

func saveToken(token string) error {
	os.MkdirAll(os.Getenv("HOME")+"/.bunkhouse", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func printUsage() {
	fmt.Print(`Bunkhouse CLI

Usage:
  bunkhouse <command> [options]

Commands:
  auth   Operator authentication (login, logout, who)
  room   Room operations (list, create, delete, assign, bulk-assign, release, set-status)
  hold   Reservation holds (list, confirm)
  help   Show this help message

Environment Variables:
  BUNKHOUSE_API    API endpoint (default: http://localhost:8080/api)

Examples:
  bunkhouse auth login -username admin -password secret
  bunkhouse room list
  bunkhouse room assign -room room-101 -resident res-42
  bunkhouse room bulk-assign -rooms room-101,room-102 -resident res-42 -hold 15
  bunkhouse hold confirm -hold hold-1 -room room-101
`)
}

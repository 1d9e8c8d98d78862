package applemail

import "fmt"

// inboxScript lists inbox messages with id above minID among the newest
// window messages.
const inboxScript = `set fieldSep to character id 31
set recordSep to character id 30
set out to ""
tell application "Mail"
	set msgs to messages of inbox
	set total to count of msgs
	set startIdx to total - %d + 1
	if startIdx < 1 then set startIdx to 1
	repeat with i from startIdx to total
		set m to item i of msgs
		if (id of m) > %d then
			set out to out & (id of m) & fieldSep & (message id of m) & fieldSep & (sender of m) & fieldSep & (subject of m) & fieldSep & ((date received of m) as «class isot» as string) & fieldSep & (content of m) & recordSep
		end if
	end repeat
end tell
return out`

func buildScript(window int, minID int64) string {
	return fmt.Sprintf(inboxScript, window, minID)
}

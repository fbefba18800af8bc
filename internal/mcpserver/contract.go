package mcpserver

// RosterFormatContract describes the roster file that feeds the user
// directory.
const RosterFormatContract = `# Ansuz Roster Format

The roster is a YAML file listing every account the server answers
WebFinger queries for. It is re-read whenever it changes on disk.

## Structure

` + "```" + `yaml
users:
  - username: natty                         # REQUIRED
  - username: bob
    host: remote.example                    # OPTIONAL – omit for local users
    uri: https://remote.example/users/bob   # OPTIONAL – ActivityPub actor id
` + "```" + `

## Rules

1. **` + "`" + `username` + "`" + ` is required.** Letters, digits, ` + "`" + `-` + "`" + ` and ` + "`" + `.` + "`" + ` only.
2. **A missing or empty ` + "`" + `host` + "`" + ` marks a local account.** Local accounts get a
   profile page link and a remote-follow template in WebFinger responses.
3. **` + "`" + `host` + "`" + ` may not contain whitespace, ` + "`" + `/` + "`" + ` or ` + "`" + `#` + "`" + `.**
4. **` + "`" + `uri` + "`" + ` becomes the ` + "`" + `self` + "`" + ` link.** Accounts without one are still
   resolvable but advertise no actor.
5. **Names are case-insensitive.** When two entries differ only in case,
   the first one wins.
6. **Removing an entry removes the account** on the next sync.
`

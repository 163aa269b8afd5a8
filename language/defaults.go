package language

import "sync"

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the built-in language set.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(builtins()...)
		if err != nil {
			panic(err)
		}
		r.alias("js", "javascript")
		r.alias("node", "javascript")
		r.alias("py", "python")
		r.alias("python3", "python")
		r.alias("c++", "cpp")
		r.alias("star", "starlark")
		r.alias("golang", "go")
		defaultRegistry = r
	})
	return defaultRegistry
}

func builtins() []Descriptor {
	return []Descriptor{
		{
			ID:          "javascript",
			DisplayName: "JavaScript",
			Runner:      InProcessScript,
			Extension:   "js",
			Version:     "ES5.1+",
			DefaultSource: `// JavaScript Online Compiler

function main() {
    console.log("Hello, World!");

    const numbers = [1, 2, 3, 4, 5];
    const user = {
        name: "Developer",
        role: "Admin"
    };

    console.log("Running as " + user.name);
}

main();
`,
		},
		{
			ID:          "python",
			DisplayName: "Python",
			Runner:      EmbeddedInterpreter,
			Extension:   "py",
			Version:     "3.x (WASI)",
			DefaultSource: `# Python Online Compiler

def main():
    print("Hello, World!")

    numbers = [1, 2, 3, 4, 5]
    user = {
        "name": "Developer",
        "role": "Admin"
    }

    print(f"Running as {user['name']}")

if __name__ == "__main__":
    main()
`,
		},
		{
			ID:          "java",
			DisplayName: "Java",
			Runner:      RemoteService,
			Extension:   "java",
			Version:     "15.0.2",
			Remote:      &RemoteTarget{Language: "java", Version: "15.0.2"},
			EntryPoint:  true,
			DefaultSource: `// Java Online Compiler

public class Main {
    public static void main(String[] args) {
        System.out.println("Hello, World!");

        User user = new User("Developer", "Admin");
        System.out.println("Running as " + user.name);
    }
}

class User {
    String name;
    String role;

    public User(String name, String role) {
        this.name = name;
        this.role = role;
    }
}
`,
		},
		{
			ID:          "cpp",
			DisplayName: "C++",
			Runner:      RemoteService,
			Extension:   "cpp",
			Version:     "10.2.0",
			Remote:      &RemoteTarget{Language: "c++", Version: "10.2.0"},
			DefaultSource: `// C++ Online Compiler
#include <iostream>
#include <string>

using namespace std;

class User {
public:
    string name;
    string role;

    User(string n, string r) : name(n), role(r) {}
};

int main() {
    cout << "Hello, World!" << endl;

    User user("Developer", "Admin");
    cout << "Running as " << user.name << endl;

    return 0;
}
`,
		},
		{
			ID:          "c",
			DisplayName: "C",
			Runner:      RemoteService,
			Extension:   "c",
			Version:     "10.2.0",
			Remote:      &RemoteTarget{Language: "c", Version: "10.2.0"},
			DefaultSource: `// C Online Compiler
#include <stdio.h>

int main() {
    printf("Hello, World!\n");

    int id = 10;
    char section = 'A';

    printf("Running in Section %c with ID %d\n", section, id);

    return 0;
}
`,
		},
		{
			ID:          "starlark",
			DisplayName: "Starlark",
			Runner:      InProcessScript,
			Extension:   "star",
			Version:     "go.starlark.net",
			DefaultSource: `# Starlark Online Compiler

def main():
    print("Hello, World!")
    user = {"name": "Developer", "role": "Admin"}
    print("Running as " + user["name"])

main()
`,
		},
		{
			ID:          "go",
			DisplayName: "Go",
			Runner:      InProcessScript,
			Extension:   "go",
			Version:     "yaegi",
			DefaultSource: `// Go Online Compiler
package main

import "fmt"

type User struct {
	Name string
	Role string
}

func main() {
	fmt.Println("Hello, World!")

	user := User{Name: "Developer", Role: "Admin"}
	fmt.Println("Running as " + user.Name)
}
`,
		},
	}
}
